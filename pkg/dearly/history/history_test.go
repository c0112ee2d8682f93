package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearlyhq/dearly/pkg/dearly/store"
	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

func newTestEngine(t *testing.T) (*Engine, *store.Blobs) {
	t.Helper()
	blobs, err := store.NewBlobs(t.TempDir())
	require.NoError(t, err)
	return NewEngine(blobs), blobs
}

func TestNextVersion(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1, NextVersion(nil))
	})

	t.Run("contiguous history", func(t *testing.T) {
		t.Parallel()
		history := []types.Snapshot{{VersionNumber: 1}, {VersionNumber: 2}, {VersionNumber: 3}}
		assert.Equal(t, 4, NextVersion(history))
	})

	t.Run("pruned history keeps counting from the max", func(t *testing.T) {
		t.Parallel()
		// Versions 1-5 were evicted; numbering must not restart.
		history := []types.Snapshot{{VersionNumber: 6}, {VersionNumber: 11}}
		assert.Equal(t, 12, NextVersion(history))
	})
}

func TestDiff(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	old := &types.Card{ID: "d-1", Date: date, Sender: "Mom", Occasion: "Birthday", Notes: "lovely"}

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()
		updated := *old
		assert.Empty(t, Diff(old, &updated))
	})

	t.Run("single field", func(t *testing.T) {
		t.Parallel()
		updated := *old
		updated.Sender = "Mother"

		changes := Diff(old, &updated)
		require.Len(t, changes, 1)
		assert.Equal(t, types.FieldSender, changes[0].Field)
		assert.Equal(t, "Mom", *changes[0].PreviousValue)
		assert.Equal(t, "Mother", *changes[0].NewValue)
	})

	t.Run("date change uses RFC 3339", func(t *testing.T) {
		t.Parallel()
		updated := *old
		updated.Date = date.AddDate(0, 0, 1)

		changes := Diff(old, &updated)
		require.Len(t, changes, 1)
		assert.Equal(t, types.FieldDateReceived, changes[0].Field)
		assert.Equal(t, date.Format(time.RFC3339), *changes[0].PreviousValue)
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		t.Parallel()
		updated := *old
		updated.Notes = "changed"
		_ = Diff(old, &updated)
		assert.Equal(t, "lovely", old.Notes)
		assert.Equal(t, "changed", updated.Notes)
	})
}

func TestAddSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("no changes is a no-op", func(t *testing.T) {
		t.Parallel()
		engine, _ := newTestEngine(t)
		card := &types.Card{ID: "a-1", History: []types.Snapshot{}}
		assert.Nil(t, engine.AddSnapshot(card, nil, nil))
		assert.Empty(t, card.History)
	})

	t.Run("appends with next version", func(t *testing.T) {
		t.Parallel()
		engine, _ := newTestEngine(t)
		card := &types.Card{ID: "a-2", History: []types.Snapshot{}}

		changes := []types.MetadataChange{{
			Field:         types.FieldSender,
			PreviousValue: types.StringPtr("Mom"),
			NewValue:      types.StringPtr("Mother"),
		}}
		snap := engine.AddSnapshot(card, changes, nil)
		require.NotNil(t, snap)
		assert.Equal(t, 1, snap.VersionNumber)
		assert.NotNil(t, snap.ImageChanges)
		require.Len(t, card.History, 1)

		snap = engine.AddSnapshot(card, changes, nil)
		assert.Equal(t, 2, snap.VersionNumber)
	})
}

func TestPruneBound(t *testing.T) {
	t.Parallel()

	engine, blobs := newTestEngine(t)
	card := &types.Card{ID: "p-1", History: []types.Snapshot{}}

	// Each snapshot references a historical blob so eviction can be
	// observed on disk.
	for i := 1; i <= MaxRetained+1; i++ {
		key := fmt.Sprintf("p-1/versions/v%d/front.jpg", i)
		require.NoError(t, blobs.Put(key, []byte("img")))
		engine.AddSnapshot(card, nil, []types.ImageChange{{Slot: types.SlotFront, PreviousBlobKey: key}})
	}

	require.Len(t, card.History, MaxRetained)
	assert.Equal(t, 2, card.History[0].VersionNumber)
	assert.Equal(t, MaxRetained+1, card.History[len(card.History)-1].VersionNumber)

	// The evicted snapshot's blob is gone; survivors keep theirs.
	assert.False(t, blobs.Exists("p-1/versions/v1/front.jpg"))
	assert.True(t, blobs.Exists("p-1/versions/v2/front.jpg"))

	// Numbering continues from the retained maximum.
	snap := engine.AddSnapshot(card, []types.MetadataChange{{
		Field:    types.FieldNotes,
		NewValue: types.StringPtr("x"),
	}}, nil)
	assert.Equal(t, MaxRetained+2, snap.VersionNumber)
}

func TestRestoreMetadata(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	card := &types.Card{
		ID:      "r-1",
		Sender:  "Mother",
		History: []types.Snapshot{},
	}
	// Version 1 recorded the edit Mom -> Mother.
	engine.AddSnapshot(card, []types.MetadataChange{{
		Field:         types.FieldSender,
		PreviousValue: types.StringPtr("Mom"),
		NewValue:      types.StringPtr("Mother"),
	}}, nil)
	require.Len(t, card.History, 1)

	require.NoError(t, engine.Restore(card, 1))

	assert.Equal(t, "Mom", card.Sender)
	require.Len(t, card.History, 2, "restore appends, never rewinds")

	reversal := card.History[1]
	assert.Equal(t, 2, reversal.VersionNumber)
	require.Len(t, reversal.MetadataChanges, 1)
	assert.Equal(t, "Mother", *reversal.MetadataChanges[0].PreviousValue)
	assert.Equal(t, "Mom", *reversal.MetadataChanges[0].NewValue)
	assert.NotNil(t, card.UpdatedAt)
}

func TestRestoreAlreadyCurrentIsNoOp(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	card := &types.Card{ID: "r-2", Sender: "Mom", History: []types.Snapshot{}}
	engine.AddSnapshot(card, []types.MetadataChange{{
		Field:         types.FieldSender,
		PreviousValue: types.StringPtr("Mom"),
		NewValue:      types.StringPtr("Mother"),
	}}, nil)

	// The card already holds the previous value, so nothing reverts and
	// no snapshot is appended.
	require.NoError(t, engine.Restore(card, 1))
	assert.Len(t, card.History, 1)
}

func TestRestoreImage(t *testing.T) {
	t.Parallel()

	engine, blobs := newTestEngine(t)

	require.NoError(t, blobs.Put("r-3/front.jpg", []byte("current front")))
	require.NoError(t, blobs.Put("r-3/versions/v1/front.jpg", []byte("old front")))

	card := &types.Card{
		ID:     "r-3",
		Images: types.ImageSet{Front: "r-3/front.jpg"},
		History: []types.Snapshot{{
			VersionNumber: 1,
			EditedAt:      time.Now(),
			ImageChanges: []types.ImageChange{{
				Slot:            types.SlotFront,
				PreviousBlobKey: "r-3/versions/v1/front.jpg",
			}},
		}},
	}

	require.NoError(t, engine.Restore(card, 1))

	// Live image now carries the historical bytes.
	live, err := blobs.Get("r-3/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("old front"), live)

	// The pre-restore image was backed up under the new version.
	backup, err := blobs.Get("r-3/versions/v2/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("current front"), backup)

	require.Len(t, card.History, 2)
	reversal := card.History[1]
	require.Len(t, reversal.ImageChanges, 1)
	assert.Equal(t, "r-3/versions/v2/front.jpg", reversal.ImageChanges[0].PreviousBlobKey)
}

func TestRestoreSkipsMissingHistoricalImage(t *testing.T) {
	t.Parallel()

	engine, blobs := newTestEngine(t)
	require.NoError(t, blobs.Put("r-4/front.jpg", []byte("current")))

	card := &types.Card{
		ID:     "r-4",
		Sender: "Mother",
		Images: types.ImageSet{Front: "r-4/front.jpg"},
		History: []types.Snapshot{{
			VersionNumber: 1,
			EditedAt:      time.Now(),
			MetadataChanges: []types.MetadataChange{{
				Field:         types.FieldSender,
				PreviousValue: types.StringPtr("Mom"),
				NewValue:      types.StringPtr("Mother"),
			}},
			ImageChanges: []types.ImageChange{{
				Slot:            types.SlotFront,
				PreviousBlobKey: "r-4/versions/v1/front.jpg", // pruned away
			}},
		}},
	}

	require.NoError(t, engine.Restore(card, 1))

	// The metadata revert still happened; the image was left alone.
	assert.Equal(t, "Mom", card.Sender)
	live, err := blobs.Get("r-4/front.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("current"), live)

	require.Len(t, card.History, 2)
	assert.Empty(t, card.History[1].ImageChanges)
}

func TestRestoreUnknownVersion(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t)
	card := &types.Card{ID: "r-5", History: []types.Snapshot{}}
	err := engine.Restore(card, 7)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDeleteSnapshot(t *testing.T) {
	t.Parallel()

	engine, blobs := newTestEngine(t)
	require.NoError(t, blobs.Put("d-1/versions/v1/front.jpg", []byte("img")))

	card := &types.Card{
		ID: "d-1",
		History: []types.Snapshot{
			{
				VersionNumber: 1,
				ImageChanges: []types.ImageChange{{
					Slot:            types.SlotFront,
					PreviousBlobKey: "d-1/versions/v1/front.jpg",
				}},
			},
			{VersionNumber: 2},
		},
	}

	require.NoError(t, engine.DeleteSnapshot(card, 1))
	require.Len(t, card.History, 1)
	assert.Equal(t, 2, card.History[0].VersionNumber)
	assert.False(t, blobs.Exists("d-1/versions/v1/front.jpg"))

	err := engine.DeleteSnapshot(card, 1)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSetFieldValueUnparseableDate(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	card := &types.Card{ID: "f-1", Date: date}
	SetFieldValue(card, types.FieldDateReceived, "not a date")
	assert.Equal(t, date, card.Date, "unparseable date must leave the card untouched")
}
