// Package container implements the .dearly container service: exporting
// cards to archives, importing and validating archives, and bundle
// backup/restore with preview-then-select semantics.
//
// The service holds no shared mutable state across calls. Each call
// acquires a private scratch directory on entry and removes it on every
// exit path via a deferred cleanup, so partial staging never leaks
// temporary files. Collaborators (record store, blob store) are
// constructor-injected.
package container

import (
	"os"

	"github.com/dearlyhq/dearly/pkg/dearly/history"
	"github.com/dearlyhq/dearly/pkg/dearly/logging"
	"github.com/dearlyhq/dearly/pkg/dearly/store"
)

// Extension is the archive file extension. At the transport level the
// file is a generic archive container.
const Extension = ".dearly"

// DefaultJPEGQuality is the fixed lossy quality used when re-encoding
// card images for export.
const DefaultJPEGQuality = 85

// logger is the package-level logger for container operations.
var logger = logging.Get("container")

// Service orchestrates the archive codec, manifest schema, and history
// engine against the injected stores.
type Service struct {
	records     store.RecordStore
	blobs       store.BlobStore
	history     *history.Engine
	scratchRoot string
	jpegQuality int
}

// Option customizes a Service.
type Option func(*Service)

// WithScratchRoot overrides where per-call scratch directories are
// created. Defaults to the system temp directory.
func WithScratchRoot(dir string) Option {
	return func(s *Service) { s.scratchRoot = dir }
}

// WithJPEGQuality overrides the export re-encode quality.
func WithJPEGQuality(quality int) Option {
	return func(s *Service) { s.jpegQuality = quality }
}

// New creates a container service with the given collaborators.
func New(records store.RecordStore, blobs store.BlobStore, opts ...Option) *Service {
	s := &Service{
		records:     records,
		blobs:       blobs,
		history:     history.NewEngine(blobs),
		scratchRoot: os.TempDir(),
		jpegQuality: DefaultJPEGQuality,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// History returns the history engine bound to this service's blob store.
func (s *Service) History() *history.Engine {
	return s.history
}

// scratchDir creates a uniquely named private working directory and
// returns it with a cleanup func. Callers must defer the cleanup so the
// directory is removed on every exit path.
func (s *Service) scratchDir(op string) (string, func(), error) {
	dir, err := os.MkdirTemp(s.scratchRoot, "dearly-"+op+"-*")
	if err != nil {
		return "", nil, newError(KindFileOperation, "create scratch directory", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove scratch directory", "dir", dir, "error", err)
		}
	}
	return dir, cleanup, nil
}

// wrapFileOp wraps an unexpected collaborator failure into the typed
// taxonomy instead of letting it escape untyped.
func wrapFileOp(action string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return newError(KindFileOperation, action, err)
}
