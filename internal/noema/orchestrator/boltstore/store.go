// Package boltstore persists the Orchestrator's session snapshots to a
// BoltDB file so sessions survive a process restart. Grounded on the
// teacher's internal/hivemind/service/agents/store/boltdb package: a single
// bucket keyed by ID, JSON-encoded values, one bolt.Update/View per call.
package boltstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"

	noemajson "github.com/corvid-labs/noema/pkg/json"
)

var bucketSessions = []byte("sessions")

// Store wraps a BoltDB file holding one JSON-encoded value per session ID.
// Values are opaque to Store — callers marshal/unmarshal their own snapshot
// type.
type Store struct {
	db *bolt.DB
}

// Open creates (or reuses) the BoltDB file at path, creating its parent
// directory and the sessions bucket if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("boltstore: create directory %q: %w", dir, err)
		}
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %q: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying BoltDB file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts the JSON encoding of value under id.
func (s *Store) Put(id string, value interface{}) error {
	data, err := noemajson.Marshal(value)
	if err != nil {
		return fmt.Errorf("boltstore: marshal %q: %w", id, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(id), data)
	})
}

// Delete removes id. A no-op if id is absent.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}

// ForEach passes each stored (id, raw JSON) pair to fn, in bucket
// (byte-lexicographic ID) order. The caller unmarshals raw into its own
// snapshot type.
func (s *Store) ForEach(fn func(id string, raw []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}
