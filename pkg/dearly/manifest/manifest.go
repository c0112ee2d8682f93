package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// EntryName is the archive entry holding the manifest document.
const EntryName = "manifest.json"

// Sentinel errors for manifest decoding and validation.
var (
	// ErrInvalidManifest indicates the document does not decode or does
	// not resolve to exactly one payload mode.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrUnsupportedVersion indicates a formatVersion newer than
	// MaxVersion. The check runs before any payload validation.
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
)

// Decode parses and validates a manifest document. The version gate runs
// first: any formatVersion greater than MaxVersion is rejected even if
// the rest of the document decodes cleanly.
func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		// The version gate must fire even when the full document does
		// not decode, so probe the version field independently.
		if v, ok := probeVersion(data); ok && v > MaxVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.FormatVersion > MaxVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.FormatVersion)
	}
	if _, err := m.Mode(); err != nil {
		return nil, err
	}
	return &m, nil
}

// probeVersion extracts just the formatVersion field from a document
// that may otherwise be malformed.
func probeVersion(data []byte) (int, bool) {
	var probe struct {
		FormatVersion int `json:"formatVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, false
	}
	return probe.FormatVersion, probe.FormatVersion != 0
}

// Encode serializes the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// Mode resolves which payload the manifest carries. A bundle manifest
// with an empty cards array is invalid, as is a single manifest missing
// either card or images.
func (m *Manifest) Mode() (Mode, error) {
	if m.BundleType == BundleBackup || len(m.Cards) > 0 {
		if len(m.Cards) == 0 {
			return 0, fmt.Errorf("%w: backup bundle has no cards", ErrInvalidManifest)
		}
		return ModeBundle, nil
	}
	if m.Card == nil {
		return 0, fmt.Errorf("%w: missing card", ErrInvalidManifest)
	}
	if m.Images == nil {
		return 0, fmt.Errorf("%w: missing images", ErrInvalidManifest)
	}
	return ModeSingle, nil
}

// NewSingle builds a single-mode manifest for one card. The format
// version is 2 when history is present, 1 otherwise.
func NewSingle(card *types.Card, images ImageSet, history []types.Snapshot) *Manifest {
	m := &Manifest{
		FormatVersion: VersionSingle,
		ExportedAt:    time.Now().UTC(),
		Card:          cardToWire(card),
		Images:        &images,
	}
	if len(history) > 0 {
		m.FormatVersion = VersionHistory
		m.VersionHistory = HistoryToWire(history)
	}
	return m
}

// NewBundle builds a bundle-mode manifest for a multi-card backup.
func NewBundle(cards []BundleCard) *Manifest {
	return &Manifest{
		FormatVersion: VersionBundle,
		ExportedAt:    time.Now().UTC(),
		BundleType:    BundleBackup,
		Cards:         cards,
	}
}

// NewBundleCard pairs a card's wire metadata with its image entry names
// and optional history.
func NewBundleCard(card *types.Card, images ImageSet, history []types.Snapshot) BundleCard {
	return BundleCard{
		Card:           *cardToWire(card),
		Images:         images,
		VersionHistory: HistoryToWire(history),
	}
}

// cardToWire converts a domain card to its manifest shape. Image keys
// and history are carried separately in the manifest, never inside the
// card object.
func cardToWire(card *types.Card) *Card {
	return &Card{
		ID:              card.ID,
		Date:            card.Date,
		IsFavorite:      card.IsFavorite,
		Sender:          card.Sender,
		Occasion:        card.Occasion,
		Notes:           card.Notes,
		Type:            string(card.Type),
		AspectRatio:     card.AspectRatio,
		AIExtractedData: card.AIExtractedData,
		CreatedAt:       card.CreatedAt,
		UpdatedAt:       card.UpdatedAt,
	}
}

// CardFromWire converts a manifest card back to the domain type. The
// identifier is carried over verbatim; minting a fresh one on import is
// the container service's job.
func CardFromWire(wire *Card) *types.Card {
	cardType := types.CardType(wire.Type)
	if !cardType.Valid() {
		cardType = types.TypeFlat
	}
	return &types.Card{
		ID:              wire.ID,
		Date:            wire.Date,
		IsFavorite:      wire.IsFavorite,
		Sender:          wire.Sender,
		Occasion:        wire.Occasion,
		Notes:           wire.Notes,
		Type:            cardType,
		AspectRatio:     wire.AspectRatio,
		AIExtractedData: wire.AIExtractedData,
		CreatedAt:       wire.CreatedAt,
		UpdatedAt:       wire.UpdatedAt,
		History:         []types.Snapshot{},
	}
}

// HistoryToWire converts snapshots to their serialized shape, writing
// lower-cased human-readable field labels.
func HistoryToWire(history []types.Snapshot) []Version {
	if len(history) == 0 {
		return nil
	}
	wire := make([]Version, 0, len(history))
	for _, snap := range history {
		v := Version{
			VersionNumber:   snap.VersionNumber,
			EditedAt:        snap.EditedAt,
			MetadataChanges: []MetadataChange{},
			ImageChanges:    []ImageChange{},
		}
		for _, mc := range snap.MetadataChanges {
			v.MetadataChanges = append(v.MetadataChanges, MetadataChange{
				Field:         FieldLabel(mc.Field),
				PreviousValue: mc.PreviousValue,
				NewValue:      mc.NewValue,
			})
		}
		for _, ic := range snap.ImageChanges {
			v.ImageChanges = append(v.ImageChanges, ImageChange{
				Slot:             string(ic.Slot),
				PreviousFilename: ic.PreviousBlobKey,
			})
		}
		wire = append(wire, v)
	}
	return wire
}

// HistoryFromWire converts serialized history back to domain snapshots.
// Unrecognized field labels map to notes; unrecognized slots are dropped.
func HistoryFromWire(wire []Version) []types.Snapshot {
	history := make([]types.Snapshot, 0, len(wire))
	for _, v := range wire {
		snap := types.Snapshot{
			VersionNumber:   v.VersionNumber,
			EditedAt:        v.EditedAt,
			MetadataChanges: []types.MetadataChange{},
			ImageChanges:    []types.ImageChange{},
		}
		for _, mc := range v.MetadataChanges {
			snap.MetadataChanges = append(snap.MetadataChanges, types.MetadataChange{
				Field:         ParseFieldLabel(mc.Field),
				PreviousValue: mc.PreviousValue,
				NewValue:      mc.NewValue,
			})
		}
		for _, ic := range v.ImageChanges {
			slot, err := types.ParseSlot(ic.Slot)
			if err != nil {
				continue
			}
			snap.ImageChanges = append(snap.ImageChanges, types.ImageChange{
				Slot:            slot,
				PreviousBlobKey: ic.PreviousFilename,
			})
		}
		history = append(history, snap)
	}
	return history
}

// ImageSetFromWire converts manifest image entry names to a domain
// image set.
func ImageSetFromWire(wire ImageSet) types.ImageSet {
	return types.ImageSet{
		Front:       wire.Front,
		Back:        wire.Back,
		InsideLeft:  wire.InsideLeft,
		InsideRight: wire.InsideRight,
	}
}

// ImageSetToWire converts a domain image set to manifest entry names.
func ImageSetToWire(set types.ImageSet) ImageSet {
	return ImageSet{
		Front:       set.Front,
		Back:        set.Back,
		InsideLeft:  set.InsideLeft,
		InsideRight: set.InsideRight,
	}
}
