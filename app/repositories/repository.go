package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("record not found")
)

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	Path     string
	InMemory bool
}

// BadgerStore owns a badger database and the repositories built on it.
type BadgerStore struct {
	db       *badger.DB
	mutex    *sync.Mutex
	dbPath   string
	isTestDB bool

	Posts *BadgerPostRepository
	Users *BadgerUserRepository
}

// OpenBadger opens the database at opts.Path. An empty path without
// InMemory creates a throwaway directory that is removed on Close.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	path := opts.Path
	isTest := false
	if path == "" && !opts.InMemory {
		tempPath, err := os.MkdirTemp("", "inkwell_test_db_")
		if err != nil {
			return nil, fmt.Errorf("error creating temp dir: %v", err)
		}
		path = tempPath
		isTest = true
	}

	badgerOpts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return NewBadgerStore(db, path, isTest), nil
}

// NewBadgerStore wraps an already open database. Both repositories share one
// write lock so multi-key updates never conflict.
func NewBadgerStore(db *badger.DB, path string, isTest bool) *BadgerStore {
	mu := &sync.Mutex{}
	return &BadgerStore{
		db:       db,
		mutex:    mu,
		dbPath:   path,
		isTestDB: isTest,
		Posts:    &BadgerPostRepository{db: db, mutex: mu},
		Users:    &BadgerUserRepository{db: db, mutex: mu},
	}
}

// DB exposes the underlying database for backup and restore.
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// Ping reports whether the database is still open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	err := s.db.Close()
	if err != nil {
		return err
	}

	// Clean up test database
	if s.isTestDB {
		err = os.RemoveAll(s.dbPath)
		if err != nil {
			return fmt.Errorf("failed to cleanup test database: %v", err)
		}
	}
	return nil
}

// Clear drops every key.
func (s *BadgerStore) Clear() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.db.DropAll()
}
