package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// SpecStore is a badger-backed key/value store for built chart specs.
// Values are immutable once written so reads are memoized in memory.
type SpecStore struct {
	db    *badger.DB
	cache sync.Map
}

func OpenSpecStore(path string) (*SpecStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &SpecStore{db: db}, nil
}

func (s *SpecStore) Close() error {
	return s.db.Close()
}

// PutBatch writes all entries in one batch.
func (s *SpecStore) PutBatch(entries map[string][]byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for k, v := range entries {
		if err := wb.Set([]byte(k), v); err != nil {
			return err
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}
	for k, v := range entries {
		s.cache.Store(k, append([]byte(nil), v...))
	}
	return nil
}

// Get returns the value stored under key, or nil when there is none.
func (s *SpecStore) Get(key string) ([]byte, error) {
	if v, ok := s.cache.Load(key); ok {
		return v.([]byte), nil
	}
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err == nil {
		s.cache.Store(key, val)
	}
	return val, err
}

// Prune deletes every key that does not start with prefix and returns how
// many were removed.
func (s *SpecStore) Prune(prefix string) (int, error) {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			if !bytes.HasPrefix(k, []byte(prefix)) {
				stale = append(stale, k)
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
		s.cache.Delete(string(k))
	}
	return len(stale), wb.Flush()
}

// Fingerprint hashes version, the contents of every file in paths and any
// extra inputs into a hex SHA-256 digest. Inputs are length-prefixed so
// moving bytes between them changes the digest.
func Fingerprint(version string, paths []string, extra ...[]byte) (string, error) {
	h := sha256.New()
	writeField := func(b []byte) {
		fmt.Fprintf(h, "%d:", len(b))
		h.Write(b)
	}
	writeField([]byte(version))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", err
		}
		st, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return "", err
		}
		fmt.Fprintf(h, "%d:", st.Size())
		_, err = io.Copy(h, f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("%s: %w", p, err)
		}
	}
	for _, b := range extra {
		writeField(b)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
