package container

import "fmt"

// Kind classifies a container error.
type Kind string

// The container error taxonomy. Codec and manifest failures are mapped
// onto these kinds; unexpected collaborator failures are wrapped as
// KindFileOperation rather than escaping untyped.
const (
	KindInvalidArchive       Kind = "invalid_archive"
	KindMissingManifest      Kind = "missing_manifest"
	KindInvalidManifest      Kind = "invalid_manifest"
	KindUnsupportedVersion   Kind = "unsupported_version"
	KindMissingImage         Kind = "missing_image"
	KindInvalidCardData      Kind = "invalid_card_data"
	KindWriteError           Kind = "write_error"
	KindExportError          Kind = "export_error"
	KindBackupBundleMismatch Kind = "backup_bundle_mismatch"
	KindFileOperation        Kind = "file_operation"
)

// Error is a typed container error. Description and Suggestion are
// independent strings so the caller can present both without extra
// logic.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Detail describes what went wrong.
	Detail string

	// Suggestion tells the user how to recover.
	Suggestion string

	// Err is the underlying cause, if any.
	Err error
}

// Error returns the failure description.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is works against the
// exported sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is matching. Never returned directly.
var (
	ErrInvalidArchive       = &Error{Kind: KindInvalidArchive}
	ErrMissingManifest      = &Error{Kind: KindMissingManifest}
	ErrInvalidManifest      = &Error{Kind: KindInvalidManifest}
	ErrUnsupportedVersion   = &Error{Kind: KindUnsupportedVersion}
	ErrMissingImage         = &Error{Kind: KindMissingImage}
	ErrInvalidCardData      = &Error{Kind: KindInvalidCardData}
	ErrWriteError           = &Error{Kind: KindWriteError}
	ErrExportError          = &Error{Kind: KindExportError}
	ErrBackupBundleMismatch = &Error{Kind: KindBackupBundleMismatch}
	ErrFileOperation        = &Error{Kind: KindFileOperation}
)

// suggestions holds the default recovery suggestion per kind.
var suggestions = map[Kind]string{
	KindInvalidArchive:       "The file does not look like a valid card archive. Ask for it to be exported again.",
	KindMissingManifest:      "The archive has no manifest. Export the card again with a current version of the app.",
	KindInvalidManifest:      "The archive's manifest could not be read. Export the card again.",
	KindUnsupportedVersion:   "This archive was created by a newer app version. Update the app and try again.",
	KindMissingImage:         "A required image is missing from the archive. Export the card again.",
	KindInvalidCardData:      "The card data in this archive is damaged. Ask for it to be exported again.",
	KindWriteError:           "The archive could not be written. Check free disk space and permissions.",
	KindExportError:          "The card could not be exported. Try again.",
	KindBackupBundleMismatch: "This file holds a different kind of archive than the operation expects. Use the matching import mode.",
	KindFileOperation:        "A storage operation failed. Check free disk space and try again.",
}

// newError builds a typed error with the default suggestion for its kind.
func newError(kind Kind, detail string, err error) *Error {
	return &Error{
		Kind:       kind,
		Detail:     detail,
		Suggestion: suggestions[kind],
		Err:        err,
	}
}

func errorf(kind Kind, format string, args ...any) *Error {
	return newError(kind, fmt.Sprintf(format, args...), nil)
}
