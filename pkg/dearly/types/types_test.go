package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardTypeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, TypeFlat.Valid())
	assert.True(t, TypeFolded.Valid())
	assert.False(t, CardType("").Valid())
	assert.False(t, CardType("origami").Valid())
}

func TestEffectiveType(t *testing.T) {
	t.Parallel()

	card := &Card{}
	assert.Equal(t, TypeFlat, card.EffectiveType())

	card.Type = TypeFolded
	assert.Equal(t, TypeFolded, card.EffectiveType())
}

func TestParseSlot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    ImageSlot
		wantErr bool
	}{
		{input: "front", want: SlotFront},
		{input: "back", want: SlotBack},
		{input: "insideLeft", want: SlotInsideLeft},
		{input: "insideRight", want: SlotInsideRight},
		{input: "Front", wantErr: true},
		{input: "inside_left", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			slot, err := ParseSlot(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownSlot))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, slot)
		})
	}
}

func TestImageSetSlotAccess(t *testing.T) {
	t.Parallel()

	var set ImageSet
	for _, slot := range AllSlots() {
		set.SetSlot(slot, "key/"+string(slot))
	}
	for _, slot := range AllSlots() {
		assert.Equal(t, "key/"+string(slot), set.ForSlot(slot))
	}
}

func TestImageSetPresent(t *testing.T) {
	t.Parallel()

	set := ImageSet{Front: "f.jpg", Back: "b.jpg"}
	assert.Equal(t, []ImageSlot{SlotFront, SlotBack}, set.Present())

	set.InsideRight = "ir.jpg"
	assert.Equal(t, []ImageSlot{SlotFront, SlotBack, SlotInsideRight}, set.Present())

	var empty ImageSet
	assert.Empty(t, empty.Present())
}

func TestSnapshotEmpty(t *testing.T) {
	t.Parallel()

	var snap Snapshot
	assert.True(t, snap.Empty())

	snap.MetadataChanges = []MetadataChange{{Field: FieldSender}}
	assert.False(t, snap.Empty())

	snap = Snapshot{ImageChanges: []ImageChange{{Slot: SlotFront}}}
	assert.False(t, snap.Empty())
}

func TestExtractionStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ExtractionStatus{ExtractionPending, ExtractionProcessing, ExtractionComplete, ExtractionFailed} {
		assert.True(t, s.Valid(), "status %v", s)
	}
	assert.False(t, ExtractionStatus("stalled").Valid())
}
