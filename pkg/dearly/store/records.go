package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dearlyhq/dearly/pkg/dearly/types"
)

// recordKeyPrefix namespaces card records inside the Badger keyspace.
const recordKeyPrefix = "card/"

// Records is a Badger-backed RecordStore. Card records are stored as
// JSON values keyed by card ID.
type Records struct {
	db *badger.DB
}

// OpenRecords opens or creates a record store at the given path.
func OpenRecords(path string) (*Records, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	return &Records{db: db}, nil
}

// Close closes the underlying database.
func (r *Records) Close() error {
	return r.db.Close()
}

// Get retrieves a card by ID.
func (r *Records) Get(id string) (*types.Card, error) {
	var card types.Card

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &card)
		})
	})
	if err != nil {
		return nil, err
	}

	if card.History == nil {
		card.History = []types.Snapshot{}
	}
	return &card, nil
}

// Put stores or replaces a card.
func (r *Records) Put(card *types.Card) error {
	if card.ID == "" {
		return errors.New("card ID cannot be empty")
	}
	value, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card %s: %w", card.ID, err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(card.ID), value)
	})
}

// Delete removes a card record. Absent cards are not an error.
func (r *Records) Delete(id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
}

// List returns all stored cards.
func (r *Records) List() ([]*types.Card, error) {
	var cards []*types.Card

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var card types.Card
				if err := json.Unmarshal(val, &card); err != nil {
					return err
				}
				if card.History == nil {
					card.History = []types.Snapshot{}
				}
				cards = append(cards, &card)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func recordKey(id string) []byte {
	return []byte(recordKeyPrefix + id)
}
