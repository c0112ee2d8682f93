package container

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dearlyhq/dearly/pkg/dearly/archive"
	"github.com/dearlyhq/dearly/pkg/dearly/manifest"
	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// ExportResult is a finished archive plus its suggested filename. The
// filename is derived from sender and date and is not guaranteed unique;
// callers de-duplicate, e.g. by suffixing a short identifier.
type ExportResult struct {
	Data     []byte
	Filename string
}

// stagedFile is one file written to the scratch area, paired with the
// archive entry name it will be stored under.
type stagedFile struct {
	entryName string
	path      string
}

// Export builds a single-card archive: the card's images re-encoded at
// the fixed lossy quality, every historical image when includeHistory is
// set, and the manifest. Entries use the Store method throughout since
// photographic images are already compressed.
func (s *Service) Export(card *types.Card, includeHistory bool) (*ExportResult, error) {
	scratch, cleanup, err := s.scratchDir("export")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	staged, images, err := s.stageLiveImages(scratch, card, "")
	if err != nil {
		return nil, err
	}

	var exportedHistory []types.Snapshot
	if includeHistory && len(card.History) > 0 {
		historyFiles, rewritten, err := s.stageHistoryImages(scratch, card, "")
		if err != nil {
			return nil, err
		}
		staged = append(staged, historyFiles...)
		exportedHistory = rewritten
	}

	m := manifest.NewSingle(card, images, exportedHistory)
	data, err := s.writeArchive(m, staged)
	if err != nil {
		return nil, err
	}

	logger.Info("exported card", "card", card.ID, "entries", len(staged)+1,
		"history", len(exportedHistory), "bytes", len(data))
	return &ExportResult{Data: data, Filename: exportFilename(card)}, nil
}

// ExportBundle builds a backup bundle archive covering every given card.
// Per-card entries live under cards/{id}/, history under
// cards/{id}/versions/.
func (s *Service) ExportBundle(cards []*types.Card, includeHistory bool) (*ExportResult, error) {
	if len(cards) == 0 {
		return nil, newError(KindExportError, "no cards to back up", nil)
	}

	scratch, cleanup, err := s.scratchDir("backup")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var staged []stagedFile
	bundleCards := make([]manifest.BundleCard, 0, len(cards))
	for _, card := range cards {
		prefix := "cards/" + card.ID + "/"

		cardFiles, images, err := s.stageLiveImages(scratch, card, prefix)
		if err != nil {
			return nil, err
		}
		staged = append(staged, cardFiles...)

		var exportedHistory []types.Snapshot
		if includeHistory && len(card.History) > 0 {
			historyFiles, rewritten, err := s.stageHistoryImages(scratch, card, prefix)
			if err != nil {
				return nil, err
			}
			staged = append(staged, historyFiles...)
			exportedHistory = rewritten
		}

		bundleCards = append(bundleCards, manifest.NewBundleCard(card, images, exportedHistory))
	}

	m := manifest.NewBundle(bundleCards)
	data, err := s.writeArchive(m, staged)
	if err != nil {
		return nil, err
	}

	logger.Info("exported backup bundle", "cards", len(cards), "bytes", len(data))
	filename := fmt.Sprintf("dearly-backup-%s%s", time.Now().UTC().Format("2006-01-02"), Extension)
	return &ExportResult{Data: data, Filename: filename}, nil
}

// stageLiveImages re-encodes the card's current images into the scratch
// area and returns the staged files with the manifest image mapping.
// Front and back are required; the inside slots are staged only on
// folded cards.
func (s *Service) stageLiveImages(scratch string, card *types.Card, prefix string) ([]stagedFile, manifest.ImageSet, error) {
	var staged []stagedFile
	var images manifest.ImageSet

	slots := []types.ImageSlot{types.SlotFront, types.SlotBack}
	if card.EffectiveType() == types.TypeFolded {
		slots = append(slots, types.SlotInsideLeft, types.SlotInsideRight)
	}

	for _, slot := range slots {
		key := card.Images.ForSlot(slot)
		required := slot == types.SlotFront || slot == types.SlotBack
		if key == "" {
			if required {
				return nil, images, errorf(KindMissingImage, "card %s has no %s image", card.ID, slot)
			}
			continue
		}

		raw, err := s.blobs.Get(key)
		if err != nil {
			if required {
				return nil, images, newError(KindMissingImage, fmt.Sprintf("%s image %s", slot, key), err)
			}
			logger.Warn("optional image missing, skipping", "card", card.ID, "slot", slot, "key", key)
			continue
		}

		encoded, err := reencodeJPEG(raw, s.jpegQuality)
		if err != nil {
			return nil, images, newError(KindInvalidCardData, fmt.Sprintf("%s image %s", slot, key), err)
		}

		entryName := prefix + string(slot) + ".jpg"
		stagedPath, err := stageFile(scratch, entryName, encoded)
		if err != nil {
			return nil, images, err
		}
		staged = append(staged, stagedFile{entryName: entryName, path: stagedPath})

		// The manifest maps slots to entry names relative to the card's
		// own subtree.
		setWireSlot(&images, slot, string(slot)+".jpg")
	}
	return staged, images, nil
}

// stageHistoryImages copies every historical image blob referenced by
// the card's snapshots into the scratch area, reproducing the
// versions/v{n}/{slot}.{ext} layout, and returns the history with blob
// keys rewritten to archive-relative names. Blobs that are no longer in
// the store are skipped with a warning.
func (s *Service) stageHistoryImages(scratch string, card *types.Card, prefix string) ([]stagedFile, []types.Snapshot, error) {
	var staged []stagedFile
	rewritten := make([]types.Snapshot, 0, len(card.History))

	for _, snap := range card.History {
		out := snap
		out.ImageChanges = make([]types.ImageChange, 0, len(snap.ImageChanges))
		for _, change := range snap.ImageChanges {
			if change.PreviousBlobKey == "" {
				out.ImageChanges = append(out.ImageChanges, change)
				continue
			}

			relName := historicalEntryName(card.ID, snap.VersionNumber, change)
			blob, err := s.blobs.Get(change.PreviousBlobKey)
			if err != nil {
				logger.Warn("historical image missing, omitting from export",
					"card", card.ID, "version", snap.VersionNumber, "key", change.PreviousBlobKey)
				out.ImageChanges = append(out.ImageChanges, types.ImageChange{
					Slot: change.Slot, PreviousBlobKey: relName,
				})
				continue
			}

			entryName := prefix + relName
			stagedPath, err := stageFile(scratch, entryName, blob)
			if err != nil {
				return nil, nil, err
			}
			staged = append(staged, stagedFile{entryName: entryName, path: stagedPath})
			out.ImageChanges = append(out.ImageChanges, types.ImageChange{
				Slot: change.Slot, PreviousBlobKey: relName,
			})
		}
		rewritten = append(rewritten, out)
	}
	return staged, rewritten, nil
}

// writeArchive serializes the staged files plus the manifest through the
// archive codec, Store method throughout.
func (s *Service) writeArchive(m *manifest.Manifest, staged []stagedFile) ([]byte, error) {
	manifestData, err := m.Encode()
	if err != nil {
		return nil, newError(KindExportError, "encode manifest", err)
	}

	w := archive.NewWriter()
	for _, f := range staged {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, newError(KindFileOperation, "read staged file "+f.entryName, err)
		}
		if err := w.AddEntry(f.entryName, data, archive.Store); err != nil {
			return nil, newError(KindWriteError, "add entry "+f.entryName, err)
		}
	}
	if err := w.AddEntry(manifest.EntryName, manifestData, archive.Store); err != nil {
		return nil, newError(KindWriteError, "add manifest entry", err)
	}

	data, err := w.Finalize()
	if err != nil {
		return nil, newError(KindWriteError, "finalize archive", err)
	}
	return data, nil
}

// escapesSubtree reports whether a forward-slash relative name would
// resolve outside the directory it is joined to. Archive entry names and
// manifest blob keys are untrusted input.
func escapesSubtree(name string) bool {
	if name == "" {
		return true
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean)
}

// stageFile writes data into the scratch area under the entry's relative
// name, creating parent directories on demand. Names that would escape
// the scratch directory are rejected before anything touches disk.
func stageFile(scratch, entryName string, data []byte) (string, error) {
	if escapesSubtree(entryName) {
		return "", errorf(KindInvalidCardData, "entry name escapes staging area: %q", entryName)
	}
	stagedPath := filepath.Join(scratch, filepath.FromSlash(entryName))
	if err := os.MkdirAll(filepath.Dir(stagedPath), 0o755); err != nil {
		return "", newError(KindFileOperation, "create staging directory", err)
	}
	if err := os.WriteFile(stagedPath, data, 0o644); err != nil {
		return "", newError(KindFileOperation, "stage "+entryName, err)
	}
	return stagedPath, nil
}

// historicalEntryName builds the archive-relative name for a historical
// image: versions/v{n}/{slot}.{ext}. Blob keys already follow the
// {cardID}/versions/... layout, so stripping the card prefix is enough;
// anything else is rebuilt from the snapshot version and slot.
func historicalEntryName(cardID string, version int, change types.ImageChange) string {
	if rel, ok := strings.CutPrefix(change.PreviousBlobKey, cardID+"/"); ok && strings.HasPrefix(rel, "versions/") {
		return rel
	}
	ext := path.Ext(change.PreviousBlobKey)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("versions/v%d/%s%s", version, change.Slot, ext)
}

// setWireSlot stores an entry name for a slot on a manifest image set.
func setWireSlot(images *manifest.ImageSet, slot types.ImageSlot, name string) {
	switch slot {
	case types.SlotFront:
		images.Front = name
	case types.SlotBack:
		images.Back = name
	case types.SlotInsideLeft:
		images.InsideLeft = name
	case types.SlotInsideRight:
		images.InsideRight = name
	}
}

// filenameSanitizer strips characters that do not belong in filenames.
var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// exportFilename derives an archive filename from sender and date, e.g.
// "Grandma-Rose-2024-12-25.dearly". Not guaranteed unique.
func exportFilename(card *types.Card) string {
	sender := filenameSanitizer.ReplaceAllString(card.Sender, "-")
	sender = strings.Trim(sender, "-")
	if sender == "" {
		sender = "card"
	}
	return fmt.Sprintf("%s-%s%s", sender, card.Date.Format("2006-01-02"), Extension)
}
