// Package state persists the merged topology between runs in a BoltDB file,
// so that a later run continues accumulating where an earlier one stopped.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"slrz.net/fabtopo/topology"
)

// BoltDB bucket names.
var (
	bucketNodes = []byte("nodes")
	bucketMeta  = []byte("meta")
)

var keySavedAt = []byte("saved_at")

// Store is a BoltDB backed topology store. Nodes are kept as JSON values
// keyed by GUID.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening state database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketNodes, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("creating bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing database buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all stored nodes ordered by GUID.
func (s *Store) Load() ([]*topology.Node, error) {
	var nodes []*topology.Node
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(k, v []byte) error {
			n := new(topology.Node)
			if err := json.Unmarshal(v, n); err != nil {
				return fmt.Errorf("decoding node %s: %w", k, err)
			}
			if n.GUID != string(k) {
				return fmt.Errorf("node stored under %s claims GUID %s", k, n.GUID)
			}
			nodes = append(nodes, n)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	return nodes, nil
}

// Save replaces the stored topology with t in a single transaction.
func (s *Store) Save(t *topology.T) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketNodes); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketNodes)
		if err != nil {
			return err
		}
		for _, n := range t.All() {
			v, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("encoding node %s: %w", n.GUID, err)
			}
			if err := b.Put([]byte(n.GUID), v); err != nil {
				return err
			}
		}
		ts, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySavedAt, ts)
	})
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// SavedAt returns the time of the last Save. The boolean is false if
// nothing was saved yet.
func (s *Store) SavedAt() (time.Time, bool, error) {
	var ts time.Time
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keySavedAt)
		if v == nil {
			return nil
		}
		ok = true
		return ts.UnmarshalText(v)
	})
	return ts, ok, err
}
