package container

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dearlyhq/dearly/pkg/dearly/archive"
	"github.com/dearlyhq/dearly/pkg/dearly/manifest"
	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// ErrEmptySelection is returned when bundle import is invoked without an
// explicit selection.
var ErrEmptySelection = errors.New("bundle import requires an explicit selection")

// Import imports a single-card archive. A fresh identifier is always
// minted for the imported card so it can never collide with an existing
// local record. The operation is all-or-nothing: every image is staged
// before anything is persisted, and the record is persisted last.
func (s *Service) Import(data []byte) (*types.Card, error) {
	entries, m, err := s.parseAndDecode(data)
	if err != nil {
		return nil, err
	}

	mode, err := m.Mode()
	if err != nil {
		return nil, mapManifestErr(err)
	}
	if mode != manifest.ModeSingle {
		return nil, errorf(KindBackupBundleMismatch, "single import invoked on a backup bundle")
	}

	return s.importOne(entries, m.Card, *m.Images, m.VersionHistory, "", "")
}

// BundlePreview is one row of the preview list produced for a backup
// bundle before anything is committed.
type BundlePreview struct {
	ID             string    `json:"id"`
	Sender         string    `json:"sender,omitempty"`
	Occasion       string    `json:"occasion,omitempty"`
	Date           time.Time `json:"date"`
	ThumbnailBytes []byte    `json:"-"`
}

// PreviewBundle parses a backup bundle and returns a preview row per
// card, including a small thumbnail decoded from the front image. No
// store mutation happens.
func (s *Service) PreviewBundle(data []byte) ([]BundlePreview, error) {
	entries, m, err := s.parseAndDecode(data)
	if err != nil {
		return nil, err
	}

	mode, err := m.Mode()
	if err != nil {
		return nil, mapManifestErr(err)
	}
	if mode != manifest.ModeBundle {
		return nil, errorf(KindBackupBundleMismatch, "bundle preview invoked on a single-card archive")
	}

	previews := make([]BundlePreview, 0, len(m.Cards))
	for i := range m.Cards {
		bc := &m.Cards[i]
		preview := BundlePreview{
			ID:       bc.ID,
			Sender:   bc.Sender,
			Occasion: bc.Occasion,
			Date:     bc.Date,
		}
		if entry, ok := archive.Lookup(entries, "cards/"+bc.ID+"/"+bc.Images.Front); ok {
			thumb, err := thumbnail(entry.Data)
			if err != nil {
				logger.Warn("could not build preview thumbnail", "card", bc.ID, "error", err)
			} else {
				preview.ThumbnailBytes = thumb
			}
		}
		previews = append(previews, preview)
	}
	return previews, nil
}

// BundleImportFailure records one card that could not be imported.
type BundleImportFailure struct {
	ID  string
	Err error
}

// BundleImportResult reports the outcome of a bundle import. One card's
// failure never aborts the remaining selected cards.
type BundleImportResult struct {
	Imported []*types.Card
	Failed   []BundleImportFailure
}

// ImportBundle imports the selected cards from a backup bundle, each
// independently. By default fresh identifiers are minted; keepIDs
// preserves the original identifiers instead, which reintroduces
// collision risk when restoring into a non-empty store — serializing
// that is the caller's responsibility.
func (s *Service) ImportBundle(data []byte, selection []string, keepIDs bool) (*BundleImportResult, error) {
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}

	entries, m, err := s.parseAndDecode(data)
	if err != nil {
		return nil, err
	}

	mode, err := m.Mode()
	if err != nil {
		return nil, mapManifestErr(err)
	}
	if mode != manifest.ModeBundle {
		return nil, errorf(KindBackupBundleMismatch, "bundle import invoked on a single-card archive")
	}

	byID := make(map[string]*manifest.BundleCard, len(m.Cards))
	for i := range m.Cards {
		byID[m.Cards[i].ID] = &m.Cards[i]
	}

	result := &BundleImportResult{}
	for _, id := range selection {
		bc, ok := byID[id]
		if !ok {
			result.Failed = append(result.Failed, BundleImportFailure{
				ID:  id,
				Err: errorf(KindInvalidCardData, "card %s is not in this bundle", id),
			})
			continue
		}

		forcedID := ""
		if keepIDs {
			forcedID = id
		}
		card, err := s.importOne(entries, &bc.Card, bc.Images, bc.VersionHistory, "cards/"+id+"/", forcedID)
		if err != nil {
			logger.Warn("bundle card failed to import", "card", id, "error", err)
			result.Failed = append(result.Failed, BundleImportFailure{ID: id, Err: err})
			continue
		}
		result.Imported = append(result.Imported, card)
	}
	return result, nil
}

// importOne imports one card's images, history, and record from parsed
// archive entries. prefix locates the card's subtree inside the archive
// ("" for single mode, "cards/{id}/" for bundles). forcedID preserves
// the original identifier; empty mints a fresh one.
func (s *Service) importOne(entries []archive.Entry, wireCard *manifest.Card, images manifest.ImageSet, wireHistory []manifest.Version, prefix, forcedID string) (*types.Card, error) {
	if forcedID != "" && !safeCardID(forcedID) {
		return nil, errorf(KindInvalidCardData, "card identifier %q cannot be used as a storage key", forcedID)
	}
	if err := requireImages(entries, images, prefix); err != nil {
		return nil, err
	}

	scratch, cleanup, err := s.scratchDir("import")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	newID := forcedID
	if newID == "" {
		newID = uuid.NewString()
	}

	card := manifest.CardFromWire(wireCard)
	card.ID = newID

	// Stage everything before the first store write.
	var pending []pendingBlob

	for _, slot := range types.AllSlots() {
		name := wireSlot(images, slot)
		if name == "" {
			continue
		}
		entry, ok := archive.Lookup(entries, prefix+name)
		if !ok {
			// Optional slots may name entries that were never staged.
			if slot == types.SlotFront || slot == types.SlotBack {
				return nil, errorf(KindMissingImage, "%s", name)
			}
			logger.Warn("optional image entry absent, skipping", "slot", slot, "entry", prefix+name)
			continue
		}

		key := fmt.Sprintf("%s/%s%s", newID, slot, extOrDefault(name))
		stagedPath, err := stageFile(scratch, key, entry.Data)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingBlob{key: key, path: stagedPath})
		card.Images.SetSlot(slot, key)
	}

	// Remap every historical image reference into the new identifier's
	// versions/ subtree, staging the blob bytes when the archive carries
	// them.
	history := manifest.HistoryFromWire(wireHistory)
	for i := range history {
		for j := range history[i].ImageChanges {
			change := &history[i].ImageChanges[j]
			if change.PreviousBlobKey == "" {
				continue
			}
			relName := change.PreviousBlobKey
			if escapesSubtree(relName) {
				return nil, errorf(KindInvalidCardData, "history image reference escapes the archive: %q", relName)
			}
			newKey := newID + "/" + relName
			change.PreviousBlobKey = newKey

			if entry, ok := archive.Lookup(entries, prefix+relName); ok {
				stagedPath, err := stageFile(scratch, newKey, entry.Data)
				if err != nil {
					return nil, err
				}
				pending = append(pending, pendingBlob{key: newKey, path: stagedPath})
			}
		}
	}
	card.History = history

	// Commit: blobs first, the record last. A failure partway rolls the
	// new identifier's blobs back so nothing is half-imported.
	for _, blob := range pending {
		data, err := readStaged(blob.path)
		if err != nil {
			s.rollbackBlobs(newID, pending)
			return nil, err
		}
		if err := s.blobs.Put(blob.key, data); err != nil {
			s.rollbackBlobs(newID, pending)
			return nil, wrapFileOp("store image "+blob.key, err)
		}
	}
	if err := s.records.Put(card); err != nil {
		s.rollbackBlobs(newID, pending)
		return nil, wrapFileOp("store card record", err)
	}

	logger.Info("imported card", "card", newID, "images", len(card.Images.Present()),
		"history", len(card.History))
	return card, nil
}

// pendingBlob is one staged file awaiting commit to the blob store.
type pendingBlob struct {
	key  string
	path string
}

// safeCardID reports whether an identifier can serve as a blob key
// segment. Bundle card identifiers are untrusted; with keepIDs they
// become storage keys verbatim, so separators and traversal are rejected.
func safeCardID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, "/\\")
}

// readStaged reads a staged file back, wrapping failures into the typed
// taxonomy.
func readStaged(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(KindFileOperation, "read staged file", err)
	}
	return data, nil
}

// rollbackBlobs best-effort removes blobs committed before a failed
// import.
func (s *Service) rollbackBlobs(id string, pending []pendingBlob) {
	for _, blob := range pending {
		if err := s.blobs.Delete(blob.key); err != nil {
			logger.Warn("rollback: failed to delete blob", "key", blob.key, "error", err)
		}
	}
	logger.Warn("import rolled back", "card", id)
}

// parseAndDecode parses archive bytes and decodes the manifest entry,
// mapping codec and manifest failures onto the container taxonomy.
func (s *Service) parseAndDecode(data []byte) ([]archive.Entry, *manifest.Manifest, error) {
	entries, err := archive.Parse(data)
	if err != nil {
		return nil, nil, mapArchiveErr(err)
	}

	entry, ok := archive.Lookup(entries, manifest.EntryName)
	if !ok {
		return nil, nil, errorf(KindMissingManifest, "archive has no %s", manifest.EntryName)
	}

	m, err := manifest.Decode(entry.Data)
	if err != nil {
		return nil, nil, mapManifestErr(err)
	}
	return entries, m, nil
}

// requireImages checks that the required front and back entries exist in
// the archive. The error names the missing image's filename.
func requireImages(entries []archive.Entry, images manifest.ImageSet, prefix string) error {
	for _, required := range []struct {
		slot types.ImageSlot
		name string
	}{
		{types.SlotFront, images.Front},
		{types.SlotBack, images.Back},
	} {
		if required.name == "" {
			return errorf(KindMissingImage, "manifest names no %s image", required.slot)
		}
		if _, ok := archive.Lookup(entries, prefix+required.name); !ok {
			return errorf(KindMissingImage, "%s", required.name)
		}
	}
	return nil
}

// mapArchiveErr converts codec errors to the container taxonomy.
func mapArchiveErr(err error) error {
	switch {
	case errors.Is(err, archive.ErrInvalidArchive):
		return newError(KindInvalidArchive, "", err)
	case errors.Is(err, archive.ErrCorruptEntry):
		return newError(KindInvalidCardData, "", err)
	default:
		return newError(KindInvalidArchive, "", err)
	}
}

// mapManifestErr converts manifest errors to the container taxonomy.
func mapManifestErr(err error) error {
	switch {
	case errors.Is(err, manifest.ErrUnsupportedVersion):
		return newError(KindUnsupportedVersion, "", err)
	case errors.Is(err, manifest.ErrInvalidManifest):
		return newError(KindInvalidManifest, "", err)
	default:
		return newError(KindInvalidManifest, "", err)
	}
}

// wireSlot reads the entry name stored for a slot on a manifest image
// set.
func wireSlot(images manifest.ImageSet, slot types.ImageSlot) string {
	switch slot {
	case types.SlotFront:
		return images.Front
	case types.SlotBack:
		return images.Back
	case types.SlotInsideLeft:
		return images.InsideLeft
	case types.SlotInsideRight:
		return images.InsideRight
	}
	return ""
}

func extOrDefault(name string) string {
	if ext := path.Ext(name); ext != "" {
		return ext
	}
	return ".jpg"
}
