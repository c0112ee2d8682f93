// Package store provides the persistence collaborators the container
// service depends on: a record store for card metadata and a blob store
// for image bytes. Both are plain interfaces so tests and alternative
// backends can substitute their own implementations; the concrete
// implementations here are a Badger-backed record store and a
// filesystem blob store.
package store

import (
	"errors"

	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// ErrNotFound is returned when a record or blob does not exist.
var ErrNotFound = errors.New("not found")

// RecordStore persists card records. A record is either present or
// absent; callers serialize conflicting mutations on the same card ID.
type RecordStore interface {
	// Get retrieves a card by ID. Returns ErrNotFound if absent.
	Get(id string) (*types.Card, error)

	// Put stores or replaces a card.
	Put(card *types.Card) error

	// Delete removes a card. Deleting an absent card is not an error.
	Delete(id string) error

	// List returns all stored cards in unspecified order.
	List() ([]*types.Card, error)
}

// BlobStore persists image bytes under forward-slash separated keys
// (e.g. "cardID/front.jpg", "cardID/versions/v3/back.jpg").
type BlobStore interface {
	// Get retrieves blob bytes by key. Returns ErrNotFound if absent.
	Get(key string) ([]byte, error)

	// Put stores or replaces a blob, creating parent directories on
	// demand where the backend has them.
	Put(key string, data []byte) error

	// Delete removes a blob. Deleting an absent blob is not an error.
	Delete(key string) error

	// Exists reports whether a blob is present.
	Exists(key string) bool
}
