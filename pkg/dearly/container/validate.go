package container

import (
	"github.com/dearlyhq/dearly/pkg/dearly/manifest"
)

// ValidationResult is the typed success result of Validate, carrying the
// decoded manifest.
type ValidationResult struct {
	// Manifest is the decoded manifest document.
	Manifest *manifest.Manifest

	// Mode is the resolved payload mode.
	Mode manifest.Mode

	// Entries is the number of entries parsed from the archive.
	Entries int
}

// Validate performs the same parse, decode, mode-resolution, and
// required-image checks as import, plus a CRC re-check of every entry,
// without writing to the blob or record store.
func (s *Service) Validate(data []byte) (*ValidationResult, error) {
	entries, m, err := s.parseAndDecode(data)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if err := entries[i].VerifyChecksum(); err != nil {
			return nil, newError(KindInvalidArchive, "entry failed checksum verification", err)
		}
	}

	mode, err := m.Mode()
	if err != nil {
		return nil, mapManifestErr(err)
	}

	switch mode {
	case manifest.ModeSingle:
		if err := requireImages(entries, *m.Images, ""); err != nil {
			return nil, err
		}
	case manifest.ModeBundle:
		for i := range m.Cards {
			bc := &m.Cards[i]
			if err := requireImages(entries, bc.Images, "cards/"+bc.ID+"/"); err != nil {
				return nil, err
			}
		}
	}

	return &ValidationResult{Manifest: m, Mode: mode, Entries: len(entries)}, nil
}
