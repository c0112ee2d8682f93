// Package types provides core data types for the dearly card archive toolkit.
// It includes the card record, its image slot mapping, the AI extraction
// block, and the edit-history snapshot types shared by the manifest schema
// and the history engine.
package types

import (
	"errors"
	"fmt"
	"time"
)

// CardType describes the physical form of a card.
type CardType string

const (
	// TypeFlat is a single-panel card with a front and a back.
	TypeFlat CardType = "flat"

	// TypeFolded is a folded card with two additional inside panels.
	TypeFolded CardType = "folded"
)

// Valid reports whether the card type is one of the known values.
func (t CardType) Valid() bool {
	return t == TypeFlat || t == TypeFolded
}

// ImageSlot identifies one of the four image positions on a card.
type ImageSlot string

// The four image slots. Front and back are required on every card;
// the inside slots only apply to folded cards.
const (
	SlotFront       ImageSlot = "front"
	SlotBack        ImageSlot = "back"
	SlotInsideLeft  ImageSlot = "insideLeft"
	SlotInsideRight ImageSlot = "insideRight"
)

// AllSlots lists every image slot in canonical order.
func AllSlots() []ImageSlot {
	return []ImageSlot{SlotFront, SlotBack, SlotInsideLeft, SlotInsideRight}
}

// Valid reports whether the slot is one of the four known positions.
func (s ImageSlot) Valid() bool {
	switch s {
	case SlotFront, SlotBack, SlotInsideLeft, SlotInsideRight:
		return true
	}
	return false
}

// ErrUnknownSlot is returned when an image slot name is not recognized.
var ErrUnknownSlot = errors.New("unknown image slot")

// ParseSlot parses a slot name into an ImageSlot.
func ParseSlot(s string) (ImageSlot, error) {
	slot := ImageSlot(s)
	if !slot.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
	}
	return slot, nil
}

// ImageSet maps image slots to blob keys (or, inside a manifest, to
// archive entry names). Front and back are required; the inside slots
// are only meaningful on folded cards.
type ImageSet struct {
	Front       string `json:"front"`
	Back        string `json:"back"`
	InsideLeft  string `json:"insideLeft,omitempty"`
	InsideRight string `json:"insideRight,omitempty"`
}

// ForSlot returns the value stored for the given slot.
func (is *ImageSet) ForSlot(slot ImageSlot) string {
	switch slot {
	case SlotFront:
		return is.Front
	case SlotBack:
		return is.Back
	case SlotInsideLeft:
		return is.InsideLeft
	case SlotInsideRight:
		return is.InsideRight
	}
	return ""
}

// SetSlot stores a value for the given slot.
func (is *ImageSet) SetSlot(slot ImageSlot, value string) {
	switch slot {
	case SlotFront:
		is.Front = value
	case SlotBack:
		is.Back = value
	case SlotInsideLeft:
		is.InsideLeft = value
	case SlotInsideRight:
		is.InsideRight = value
	}
}

// Present returns the slots that have a value, in canonical order.
func (is *ImageSet) Present() []ImageSlot {
	var slots []ImageSlot
	for _, slot := range AllSlots() {
		if is.ForSlot(slot) != "" {
			slots = append(slots, slot)
		}
	}
	return slots
}

// ExtractionStatus is the state of the AI extraction pipeline for a card.
type ExtractionStatus string

// Extraction pipeline states.
const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionProcessing ExtractionStatus = "processing"
	ExtractionComplete   ExtractionStatus = "complete"
	ExtractionFailed     ExtractionStatus = "failed"
)

// Valid reports whether the status is one of the known states.
func (s ExtractionStatus) Valid() bool {
	switch s {
	case ExtractionPending, ExtractionProcessing, ExtractionComplete, ExtractionFailed:
		return true
	}
	return false
}

// ExtractionError describes a failed extraction attempt. It is only
// meaningful when the extraction status is failed.
type ExtractionError struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// AIExtractedData holds the output of the AI extraction pipeline for a card.
type AIExtractedData struct {
	// ExtractedText is the free text recognized on the card.
	ExtractedText string `json:"extractedText,omitempty"`

	// DetectedSender is the sender name the pipeline identified.
	DetectedSender string `json:"detectedSender,omitempty"`

	// DetectedOccasion is the occasion the pipeline identified.
	DetectedOccasion string `json:"detectedOccasion,omitempty"`

	// Sentiment is the overall sentiment of the card text.
	Sentiment string `json:"sentiment,omitempty"`

	// MentionedDates lists dates referenced in the card text.
	MentionedDates []string `json:"mentionedDates,omitempty"`

	// Keywords lists notable keywords from the card text.
	Keywords []string `json:"keywords,omitempty"`

	// Status is the extraction pipeline state. Required.
	Status ExtractionStatus `json:"status"`

	// LastExtractedAt is when extraction last completed.
	LastExtractedAt *time.Time `json:"lastExtractedAt,omitempty"`

	// ProcessingStartedAt is when the current extraction attempt began.
	ProcessingStartedAt *time.Time `json:"processingStartedAt,omitempty"`

	// Error describes the failure when Status is ExtractionFailed.
	// It is not enforced to be absent in other states.
	Error *ExtractionError `json:"error,omitempty"`
}

// Card is one stored card record: user-entered metadata, the image slot
// mapping, optional AI extraction output, and the retained edit history.
type Card struct {
	// ID uniquely identifies the card in the local store.
	ID string `json:"id"`

	// Date is the user-assigned date for the card (e.g. when it was received).
	Date time.Time `json:"date"`

	// IsFavorite marks the card as a favorite.
	IsFavorite bool `json:"isFavorite"`

	// Sender is who the card was from.
	Sender string `json:"sender,omitempty"`

	// Occasion is what the card was for.
	Occasion string `json:"occasion,omitempty"`

	// Notes holds free-form user notes.
	Notes string `json:"notes,omitempty"`

	// Type is the physical card form. Defaults to TypeFlat when empty.
	Type CardType `json:"type,omitempty"`

	// AspectRatio is the width/height ratio of the scanned card, if known.
	AspectRatio *float64 `json:"aspectRatio,omitempty"`

	// AIExtractedData holds the AI extraction block, if extraction has run.
	AIExtractedData *AIExtractedData `json:"aiExtractedData,omitempty"`

	// CreatedAt is when the record was created.
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	// UpdatedAt is when the record was last modified.
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`

	// Images maps slots to blob store keys for the card's live images.
	Images ImageSet `json:"images"`

	// History is the retained edit-history snapshots, oldest first by
	// version number. Always present, possibly empty.
	History []Snapshot `json:"history"`
}

// EffectiveType returns the card type, defaulting to flat when unset.
func (c *Card) EffectiveType() CardType {
	if c.Type == "" {
		return TypeFlat
	}
	return c.Type
}

// MetadataField identifies one of the editable metadata fields tracked
// by the history engine.
type MetadataField string

// The fixed set of tracked metadata fields.
const (
	FieldSender       MetadataField = "sender"
	FieldOccasion     MetadataField = "occasion"
	FieldDateReceived MetadataField = "dateReceived"
	FieldNotes        MetadataField = "notes"
)

// MetadataChange records one field edit: the value before and after.
// Either value may be absent (e.g. a field set for the first time).
type MetadataChange struct {
	Field         MetadataField `json:"field"`
	PreviousValue *string       `json:"previousValue,omitempty"`
	NewValue      *string       `json:"newValue,omitempty"`
}

// ImageChange records one image slot edit. PreviousBlobKey points at the
// historical copy of the image that was replaced.
type ImageChange struct {
	Slot            ImageSlot `json:"slot"`
	PreviousBlobKey string    `json:"previousBlobKey"`
}

// Snapshot is one retained edit-history entry for a card. A snapshot is
// only created when at least one change list is non-empty.
type Snapshot struct {
	// VersionNumber increases monotonically per card and is never reused
	// or renumbered, even after older snapshots are pruned.
	VersionNumber int `json:"versionNumber"`

	// EditedAt is when the edit was made.
	EditedAt time.Time `json:"editedAt"`

	// MetadataChanges lists the field edits captured by this snapshot.
	MetadataChanges []MetadataChange `json:"metadataChanges"`

	// ImageChanges lists the image slot edits captured by this snapshot.
	ImageChanges []ImageChange `json:"imageChanges"`
}

// Empty reports whether the snapshot records no changes at all.
func (s *Snapshot) Empty() bool {
	return len(s.MetadataChanges) == 0 && len(s.ImageChanges) == 0
}

// StringPtr returns a pointer to s. Convenience for building optional
// change values.
func StringPtr(s string) *string {
	return &s
}
