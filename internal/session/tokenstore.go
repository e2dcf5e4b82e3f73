package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

var bucketSession = []byte("session")

// Tokens is the persisted credential pair. The two values are always saved
// and cleared together.
type Tokens struct {
	Access  string
	Refresh string
}

func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

// TokenStore persists the credential pair across process restarts.
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// MemoryTokenStore keeps tokens for the life of the process.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (m *MemoryTokenStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryTokenStore) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}

// BoltTokenStore keeps tokens in a bbolt file, one key per token.
type BoltTokenStore struct {
	db *bolt.DB
}

// OpenBoltTokenStore opens (creating if needed) the state file at path.
func OpenBoltTokenStore(path string) (*BoltTokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state file %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init state file: %w", err)
	}

	return &BoltTokenStore{db: db}, nil
}

func (b *BoltTokenStore) Load() (Tokens, error) {
	var t Tokens
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return nil
		}
		t.Access = string(bucket.Get([]byte(keyAccessToken)))
		t.Refresh = string(bucket.Get([]byte(keyRefreshToken)))
		return nil
	})
	if err != nil {
		return Tokens{}, fmt.Errorf("load tokens: %w", err)
	}
	return t, nil
}

func (b *BoltTokenStore) Save(t Tokens) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(keyAccessToken), []byte(t.Access)); err != nil {
			return err
		}
		return bucket.Put([]byte(keyRefreshToken), []byte(t.Refresh))
	})
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (b *BoltTokenStore) Clear() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return nil
		}
		return errors.Join(
			bucket.Delete([]byte(keyAccessToken)),
			bucket.Delete([]byte(keyRefreshToken)),
		)
	})
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (b *BoltTokenStore) Close() error {
	return b.db.Close()
}
