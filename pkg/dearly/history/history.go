// Package history implements the bounded, append-only edit-history
// engine for cards. Each edit that changes metadata or images produces a
// snapshot; at most MaxRetained snapshots are kept per card, evicting
// the oldest version numbers first. Restoring a snapshot reverts card
// state and appends a new snapshot recording the reversal, so history
// only ever shrinks through pruning.
package history

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/dearlyhq/dearly/pkg/dearly/logging"
	"github.com/dearlyhq/dearly/pkg/dearly/store"
	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// MaxRetained is the maximum number of snapshots kept per card.
const MaxRetained = 10

// logger is the package-level logger for history operations.
var logger = logging.Get("history")

// ErrSnapshotNotFound is returned when a version number does not match
// any retained snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Engine manages a card's retained snapshots. It mutates the in-memory
// card only; persisting the updated record is the caller's job. The
// blob store is used to delete evicted historical images and to shuffle
// image bytes during restore.
type Engine struct {
	blobs store.BlobStore
}

// NewEngine creates a history engine using the given blob store.
func NewEngine(blobs store.BlobStore) *Engine {
	return &Engine{blobs: blobs}
}

// NextVersion returns the version number the next snapshot will get:
// one past the highest retained version number. Version numbers are
// never reused or renumbered, even after pruning.
func NextVersion(history []types.Snapshot) int {
	maxVersion := 0
	for _, snap := range history {
		if snap.VersionNumber > maxVersion {
			maxVersion = snap.VersionNumber
		}
	}
	return maxVersion + 1
}

// Diff compares the tracked metadata fields of two cards and returns one
// change per differing field. Pure function; it never mutates either card.
func Diff(old, updated *types.Card) []types.MetadataChange {
	var changes []types.MetadataChange
	for _, field := range []types.MetadataField{
		types.FieldSender, types.FieldOccasion, types.FieldDateReceived, types.FieldNotes,
	} {
		before := FieldValue(old, field)
		after := FieldValue(updated, field)
		if before != after {
			changes = append(changes, types.MetadataChange{
				Field:         field,
				PreviousValue: types.StringPtr(before),
				NewValue:      types.StringPtr(after),
			})
		}
	}
	return changes
}

// FieldValue returns the current value of a tracked metadata field as a
// string. Dates use RFC 3339.
func FieldValue(card *types.Card, field types.MetadataField) string {
	switch field {
	case types.FieldSender:
		return card.Sender
	case types.FieldOccasion:
		return card.Occasion
	case types.FieldDateReceived:
		return card.Date.Format(time.RFC3339)
	case types.FieldNotes:
		return card.Notes
	}
	return ""
}

// SetFieldValue writes a tracked metadata field from its string form.
// Unparseable dates leave the card untouched.
func SetFieldValue(card *types.Card, field types.MetadataField, value string) {
	switch field {
	case types.FieldSender:
		card.Sender = value
	case types.FieldOccasion:
		card.Occasion = value
	case types.FieldDateReceived:
		date, err := time.Parse(time.RFC3339, value)
		if err != nil {
			logger.Warn("unparseable date in history entry", "card", card.ID, "value", value)
			return
		}
		card.Date = date
	case types.FieldNotes:
		card.Notes = value
	}
}

// AddSnapshot appends a snapshot recording the given changes, then
// prunes. It is a no-op returning nil when both change lists are empty.
func (e *Engine) AddSnapshot(card *types.Card, metadataChanges []types.MetadataChange, imageChanges []types.ImageChange) *types.Snapshot {
	if len(metadataChanges) == 0 && len(imageChanges) == 0 {
		return nil
	}

	snap := types.Snapshot{
		VersionNumber:   NextVersion(card.History),
		EditedAt:        time.Now().UTC(),
		MetadataChanges: metadataChanges,
		ImageChanges:    imageChanges,
	}
	if snap.MetadataChanges == nil {
		snap.MetadataChanges = []types.MetadataChange{}
	}
	if snap.ImageChanges == nil {
		snap.ImageChanges = []types.ImageChange{}
	}

	card.History = append(card.History, snap)
	e.prune(card)
	return &card.History[len(card.History)-1]
}

// prune evicts the oldest snapshots beyond MaxRetained and deletes their
// historical image blobs. Survivors are never renumbered.
func (e *Engine) prune(card *types.Card) {
	if len(card.History) <= MaxRetained {
		return
	}

	sort.Slice(card.History, func(i, j int) bool {
		return card.History[i].VersionNumber < card.History[j].VersionNumber
	})

	excess := len(card.History) - MaxRetained
	for _, snap := range card.History[:excess] {
		e.deleteSnapshotBlobs(card.ID, &snap)
	}
	card.History = append([]types.Snapshot{}, card.History[excess:]...)
}

// Restore reverts the card to the state captured by the snapshot with
// the given version number, and appends a new snapshot recording the
// reversal. Historical images that have since been pruned away are
// skipped with a warning.
func (e *Engine) Restore(card *types.Card, versionNumber int) error {
	snap, ok := findSnapshot(card.History, versionNumber)
	if !ok {
		return fmt.Errorf("%w: card %s version %d", ErrSnapshotNotFound, card.ID, versionNumber)
	}

	pendingVersion := NextVersion(card.History)
	var newMetadata []types.MetadataChange
	var newImages []types.ImageChange

	for _, change := range snap.MetadataChanges {
		if change.PreviousValue == nil {
			continue
		}
		current := FieldValue(card, change.Field)
		if current == *change.PreviousValue {
			continue
		}
		SetFieldValue(card, change.Field, *change.PreviousValue)
		newMetadata = append(newMetadata, types.MetadataChange{
			Field:         change.Field,
			PreviousValue: types.StringPtr(current),
			NewValue:      change.PreviousValue,
		})
	}

	for _, change := range snap.ImageChanges {
		historical, err := e.blobs.Get(change.PreviousBlobKey)
		if err != nil {
			logger.Warn("historical image no longer available, skipping",
				"card", card.ID, "slot", change.Slot, "key", change.PreviousBlobKey)
			continue
		}

		backupKey, err := e.backupCurrentImage(card, change.Slot, pendingVersion)
		if err != nil {
			return fmt.Errorf("back up %s image: %w", change.Slot, err)
		}

		liveKey := card.Images.ForSlot(change.Slot)
		if liveKey == "" {
			liveKey = liveImageKey(card.ID, change.Slot, change.PreviousBlobKey)
			card.Images.SetSlot(change.Slot, liveKey)
		}
		if err := e.blobs.Put(liveKey, historical); err != nil {
			return fmt.Errorf("write restored %s image: %w", change.Slot, err)
		}
		newImages = append(newImages, types.ImageChange{
			Slot:            change.Slot,
			PreviousBlobKey: backupKey,
		})
	}

	if len(newMetadata) == 0 && len(newImages) == 0 {
		return nil
	}

	now := time.Now().UTC()
	card.UpdatedAt = &now
	e.AddSnapshot(card, newMetadata, newImages)
	return nil
}

// backupCurrentImage copies the card's current image for a slot into the
// versions subtree so the pre-restore state is itself preserved. Returns
// an empty key when the slot has no current image.
func (e *Engine) backupCurrentImage(card *types.Card, slot types.ImageSlot, version int) (string, error) {
	liveKey := card.Images.ForSlot(slot)
	if liveKey == "" {
		return "", nil
	}
	current, err := e.blobs.Get(liveKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	backupKey := historicalImageKey(card.ID, slot, version, liveKey)
	if err := e.blobs.Put(backupKey, current); err != nil {
		return "", err
	}
	return backupKey, nil
}

// DeleteSnapshot removes one snapshot and its historical image blobs.
// The card's current (live) data is unaffected.
func (e *Engine) DeleteSnapshot(card *types.Card, versionNumber int) error {
	for i := range card.History {
		if card.History[i].VersionNumber != versionNumber {
			continue
		}
		e.deleteSnapshotBlobs(card.ID, &card.History[i])
		card.History = append(card.History[:i], card.History[i+1:]...)
		return nil
	}
	return fmt.Errorf("%w: card %s version %d", ErrSnapshotNotFound, card.ID, versionNumber)
}

// deleteSnapshotBlobs removes the historical image blobs referenced by a
// snapshot. Failures are logged and skipped so eviction always finishes.
func (e *Engine) deleteSnapshotBlobs(cardID string, snap *types.Snapshot) {
	for _, change := range snap.ImageChanges {
		if change.PreviousBlobKey == "" {
			continue
		}
		if err := e.blobs.Delete(change.PreviousBlobKey); err != nil {
			logger.Warn("failed to delete evicted historical image",
				"card", cardID, "version", snap.VersionNumber, "key", change.PreviousBlobKey, "error", err)
		}
	}
}

func findSnapshot(history []types.Snapshot, versionNumber int) (*types.Snapshot, bool) {
	for i := range history {
		if history[i].VersionNumber == versionNumber {
			return &history[i], true
		}
	}
	return nil, false
}

// historicalImageKey builds the blob key for a historical image copy:
// {cardID}/versions/v{n}/{slot}{ext}.
func historicalImageKey(cardID string, slot types.ImageSlot, version int, sourceKey string) string {
	return fmt.Sprintf("%s/versions/v%d/%s%s", cardID, version, slot, extOrJPEG(sourceKey))
}

// liveImageKey builds the blob key for a card's live image in a slot.
func liveImageKey(cardID string, slot types.ImageSlot, sourceKey string) string {
	return fmt.Sprintf("%s/%s%s", cardID, slot, extOrJPEG(sourceKey))
}

func extOrJPEG(key string) string {
	if ext := path.Ext(key); ext != "" {
		return ext
	}
	return ".jpg"
}
