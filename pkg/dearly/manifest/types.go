// Package manifest defines the versioned manifest document embedded in
// .dearly archives and its compatibility rules across the three format
// generations:
//
//   - v1: single card, no history
//   - v2: single card with optional versionHistory
//   - v3: bundle mode (bundleType "backup") with a cards array
//
// The package performs version and mode checks on the decoded document
// but never touches archive bytes itself.
package manifest

import (
	"strings"
	"time"

	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// Format generations.
const (
	// VersionSingle is the original single-card manifest.
	VersionSingle = 1

	// VersionHistory adds the top-level versionHistory list.
	VersionHistory = 2

	// VersionBundle adds bundle mode for multi-card backups.
	VersionBundle = 3

	// MaxVersion is the newest generation this implementation understands.
	// Manifests declaring anything newer are rejected before any image
	// extraction is attempted.
	MaxVersion = VersionBundle
)

// BundleType distinguishes single-card manifests from backup bundles.
type BundleType string

const (
	// BundleSingle is the implicit default for single-card manifests.
	BundleSingle BundleType = "single"

	// BundleBackup marks a multi-card backup bundle.
	BundleBackup BundleType = "backup"
)

// Mode is the resolved payload mode of a manifest.
type Mode int

const (
	// ModeSingle carries exactly one card with its images.
	ModeSingle Mode = iota

	// ModeBundle carries a cards array for backup/restore.
	ModeBundle
)

// Manifest is the top-level document. Exactly one of the single-mode
// payload (Card + Images) or the bundle-mode payload (Cards) is set; a
// manifest must resolve unambiguously to one mode before any image
// extraction happens.
type Manifest struct {
	FormatVersion  int          `json:"formatVersion"`
	ExportedAt     time.Time    `json:"exportedAt"`
	BundleType     BundleType   `json:"bundleType,omitempty"`
	Card           *Card        `json:"card,omitempty"`
	Images         *ImageSet    `json:"images,omitempty"`
	VersionHistory []Version    `json:"versionHistory,omitempty"`
	Cards          []BundleCard `json:"cards,omitempty"`
}

// Card is the wire shape of one card's metadata.
type Card struct {
	ID              string                 `json:"id"`
	Date            time.Time              `json:"date"`
	IsFavorite      bool                   `json:"isFavorite"`
	Sender          string                 `json:"sender,omitempty"`
	Occasion        string                 `json:"occasion,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	Type            string                 `json:"type,omitempty"`
	AspectRatio     *float64               `json:"aspectRatio,omitempty"`
	AIExtractedData *types.AIExtractedData `json:"aiExtractedData,omitempty"`
	CreatedAt       *time.Time             `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time             `json:"updatedAt,omitempty"`
}

// ImageSet maps slots to archive entry names. Front and back must name
// entries that exist in the archive.
type ImageSet struct {
	Front       string `json:"front"`
	Back        string `json:"back"`
	InsideLeft  string `json:"insideLeft,omitempty"`
	InsideRight string `json:"insideRight,omitempty"`
}

// BundleCard is one record in a bundle manifest: card fields plus its
// image entry names.
type BundleCard struct {
	Card
	Images         ImageSet  `json:"images"`
	VersionHistory []Version `json:"versionHistory,omitempty"`
}

// Version is the wire shape of one edit-history snapshot.
type Version struct {
	VersionNumber   int              `json:"versionNumber"`
	EditedAt        time.Time        `json:"editedAt"`
	MetadataChanges []MetadataChange `json:"metadataChanges"`
	ImageChanges    []ImageChange    `json:"imageChanges"`
}

// MetadataChange is the wire shape of one field edit. Field carries a
// human-readable label, lower-cased on write.
type MetadataChange struct {
	Field         string  `json:"field"`
	PreviousValue *string `json:"previousValue,omitempty"`
	NewValue      *string `json:"newValue,omitempty"`
}

// ImageChange is the wire shape of one image slot edit.
type ImageChange struct {
	Slot             string `json:"slot"`
	PreviousFilename string `json:"previousFilename"`
}

// FieldLabel returns the serialized label for a metadata field.
func FieldLabel(f types.MetadataField) string {
	switch f {
	case types.FieldSender:
		return "sender"
	case types.FieldOccasion:
		return "occasion"
	case types.FieldDateReceived:
		return "date received"
	default:
		return "notes"
	}
}

// ParseFieldLabel maps a serialized label back to the fixed internal
// field set. Unrecognized labels fall back to notes; lossy but never
// fatal.
func ParseFieldLabel(label string) types.MetadataField {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "sender":
		return types.FieldSender
	case "occasion":
		return types.FieldOccasion
	case "date received", "datereceived", "date-received":
		return types.FieldDateReceived
	default:
		return types.FieldNotes
	}
}
