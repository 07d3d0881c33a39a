// ABOUTME: Append-only store of form history snapshots backed by BadgerDB
// ABOUTME: Keys sort by project, form and timestamp so a prefix scan is chronological
package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/formsync/models"
)

var (
	ErrHistoryImmutable = errors.New("history entry already exists")
	ErrInvalidHistory   = errors.New("history entry needs a form id and a timestamp")
)

// HistoryStore keeps immutable snapshots of forms.
type HistoryStore struct {
	db *badger.DB
}

// OpenHistory opens the store in dir.
func OpenHistory(dir string) (*HistoryStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

// OpenHistoryInMemory opens a store that is discarded on Close.
func OpenHistoryInMemory() (*HistoryStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return &HistoryStore{db: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.db.Close()
}

func historyPrefix(projectID, formID string) []byte {
	return []byte(fmt.Sprintf("history/%s/%s/", projectID, formID))
}

// historyKey uses a fixed width timestamp so byte order is time order.
func historyKey(projectID string, entry models.HistoryEntry) []byte {
	return append(historyPrefix(projectID, entry.Form.ID), fmt.Sprintf("%020d", entry.Timestamp.UnixNano())...)
}

// Append stores entry. Entries are never overwritten.
func (h *HistoryStore) Append(projectID string, entry models.HistoryEntry) error {
	if entry.Form.ID == "" || entry.Timestamp.IsZero() {
		return ErrInvalidHistory
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := historyKey(projectID, entry)

	return h.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return ErrHistoryImmutable
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, value)
	})
}

// List returns the history of a form oldest first.
func (h *HistoryStore) List(projectID, formID string) ([]models.HistoryEntry, error) {
	prefix := historyPrefix(projectID, formID)
	var out []models.HistoryEntry
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry models.HistoryEntry
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &entry)
			}); err != nil {
				return err
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// Latest returns the newest entry of a form.
func (h *HistoryStore) Latest(projectID, formID string) (models.HistoryEntry, bool, error) {
	prefix := historyPrefix(projectID, formID)
	var entry models.HistoryEntry
	found := false
	err := h.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		found = true
		return it.Item().Value(func(v []byte) error {
			return json.Unmarshal(v, &entry)
		})
	})
	return entry, found, err
}
