package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Record summarizes one completed transfer. Metadata only: file content is
// never persisted.
type Record struct {
	TransferID   string    `json:"transfer_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `json:"file_type"`
	TotalChunks  int       `json:"total_chunks"`
	BytesRelayed int64     `json:"bytes_relayed"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Store wraps BadgerDB for completed-transfer history.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a BadgerDB at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %v", err)
	}
	return &Store{db: db}, nil
}

// Close closes the BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Keys sort by completion time so a reverse scan yields newest first.
func key(rec Record) []byte {
	return []byte("history:" + rec.CompletedAt.UTC().Format("20060102T150405.000000000") + ":" + rec.TransferID)
}

// Put stores one completed-transfer record.
func (s *Store) Put(rec Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(rec), val)
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	var recs []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("history:")
		// Reverse iteration seeks past the end of the prefix range.
		seek := []byte("history;")
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(recs) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return recs, err
}
