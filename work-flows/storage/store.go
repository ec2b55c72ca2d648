// Package storage provides the key/value persistence used by chat sessions.
//
// Implementations never return errors to callers: backing-store failures are
// logged and the operation degrades to a miss or a no-op.
package storage

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// KeyValueStore is a string key/value store with last-write-wins semantics.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// FileStore is a KeyValueStore backed by a database file.
type FileStore interface {
	KeyValueStore
	Keys() []string
	Close() error
}

// Open opens the file store for driver at path.
func Open(driver, path string, logger *zap.Logger) (FileStore, error) {
	var (
		store FileStore
		err   error
	)
	switch driver {
	case DriverSQLite, "":
		store, err = NewSQLiteStore(path, logger)
	case DriverBolt:
		store, err = NewBoltStore(path, logger)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
