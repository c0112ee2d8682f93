package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

func openTestRecords(t *testing.T) *Records {
	t.Helper()
	records, err := OpenRecords(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, records.Close())
	})
	return records
}

func TestRecordsRoundTrip(t *testing.T) {
	records := openTestRecords(t)

	card := &types.Card{
		ID:         "rec-1",
		Date:       time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC),
		Sender:     "Grandma Rose",
		Occasion:   "Birthday",
		IsFavorite: true,
		Type:       types.TypeFolded,
		Images:     types.ImageSet{Front: "rec-1/front.jpg", Back: "rec-1/back.jpg"},
		History:    []types.Snapshot{},
	}
	require.NoError(t, records.Put(card))

	got, err := records.Get("rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Grandma Rose", got.Sender)
	assert.Equal(t, types.TypeFolded, got.Type)
	assert.True(t, got.Date.Equal(card.Date))
	assert.Equal(t, "rec-1/front.jpg", got.Images.Front)
}

func TestRecordsGetMissing(t *testing.T) {
	records := openTestRecords(t)

	_, err := records.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordsPutEmptyID(t *testing.T) {
	records := openTestRecords(t)

	err := records.Put(&types.Card{})
	assert.Error(t, err)
}

func TestRecordsHistoryNormalized(t *testing.T) {
	records := openTestRecords(t)

	// A record written with nil history comes back with an empty slice.
	require.NoError(t, records.Put(&types.Card{ID: "norm-1", Date: time.Now()}))

	got, err := records.Get("norm-1")
	require.NoError(t, err)
	assert.NotNil(t, got.History)
	assert.Empty(t, got.History)
}

func TestRecordsDelete(t *testing.T) {
	records := openTestRecords(t)

	require.NoError(t, records.Put(&types.Card{ID: "del-1", Date: time.Now()}))
	require.NoError(t, records.Delete("del-1"))

	_, err := records.Get("del-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent record is not an error.
	require.NoError(t, records.Delete("del-1"))
}

func TestRecordsList(t *testing.T) {
	records := openTestRecords(t)

	for _, id := range []string{"l-1", "l-2", "l-3"} {
		require.NoError(t, records.Put(&types.Card{ID: id, Date: time.Now()}))
	}

	cards, err := records.List()
	require.NoError(t, err)
	require.Len(t, cards, 3)

	ids := make(map[string]bool, len(cards))
	for _, card := range cards {
		ids[card.ID] = true
		assert.NotNil(t, card.History)
	}
	assert.True(t, ids["l-1"] && ids["l-2"] && ids["l-3"])
}

func TestRecordsOverwrite(t *testing.T) {
	records := openTestRecords(t)

	require.NoError(t, records.Put(&types.Card{ID: "ow-1", Sender: "Mom", Date: time.Now()}))
	require.NoError(t, records.Put(&types.Card{ID: "ow-1", Sender: "Mother", Date: time.Now()}))

	got, err := records.Get("ow-1")
	require.NoError(t, err)
	assert.Equal(t, "Mother", got.Sender)

	cards, err := records.List()
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}
