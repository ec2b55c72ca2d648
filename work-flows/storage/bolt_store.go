package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	bolt "go.etcd.io/bbolt"
)

var conversationsBucket = []byte("conversations")

// BoltStore keeps every slot in one bucket of a BoltDB file.
type BoltStore struct {
	db     *bolt.DB
	logger *zap.Logger
}

// NewBoltStore opens (or creates) the BoltDB file at path.
func NewBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(conversationsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{
		db:     db,
		logger: logger.Named("storage"),
	}, nil
}

func (s *BoltStore) Get(key string) (string, bool) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(conversationsBucket).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction.
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("kv get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return value, found
}

func (s *BoltStore) Set(key, value string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		s.logger.Warn("kv set failed", zap.String("key", key), zap.Int("bytes", len(value)), zap.Error(err))
	}
}

func (s *BoltStore) Remove(key string) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Delete([]byte(key))
	})
	if err != nil {
		s.logger.Warn("kv remove failed", zap.String("key", key), zap.Error(err))
	}
}

// Keys lists stored keys in byte order.
func (s *BoltStore) Keys() []string {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		s.logger.Warn("kv keys failed", zap.Error(err))
		return nil
	}
	return keys
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
