package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/PizzaHomicide/kasumi/internal/domain"
	"github.com/PizzaHomicide/kasumi/internal/log"
)

// Key layout inside the embedded store:
//
//	user:<id>       registered user record (JSON)
//	email:<email>   uniqueness index, value is the user id
//	username:<name> uniqueness index, value is the user id
//	current         current-user snapshot (JSON)
//
// Index keys are lowercased so lookups are case-insensitive.
const (
	userKeyPrefix     = "user:"
	emailKeyPrefix    = "email:"
	usernameKeyPrefix = "username:"
	currentKey        = "current"
)

// Store is a Badger-backed implementation of domain.UserStore.  The local
// session variant keeps all of its state here; the hosted variant only uses
// the current-user snapshot as a cache for synchronous reads.
type Store struct {
	db *badger.DB
}

var _ domain.UserStore = (*Store)(nil)

// Open opens (creating if necessary) the embedded store under dataDir
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("unable to create data directory: %w", err)
	}

	// Badger's own logger writes to stderr which would corrupt the TUI
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to open user store: %w", err)
	}

	log.Debug("Opened user store", "data_dir", dataDir)
	return &Store{db: db}, nil
}

// SaveUser persists the user record and refreshes its uniqueness indexes
func (s *Store) SaveUser(rec *domain.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("unable to encode user record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(userKeyPrefix+rec.User.ID), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(emailKeyPrefix+strings.ToLower(rec.User.Email)), []byte(rec.User.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(usernameKeyPrefix+strings.ToLower(rec.User.Username)), []byte(rec.User.ID))
	})
}

// UserByEmail looks a registered user up through the email index
func (s *Store) UserByEmail(email string) (*domain.UserRecord, error) {
	return s.userByIndex(emailKeyPrefix + strings.ToLower(email))
}

// UserByUsername looks a registered user up through the username index
func (s *Store) UserByUsername(username string) (*domain.UserRecord, error) {
	return s.userByIndex(usernameKeyPrefix + strings.ToLower(username))
}

func (s *Store) userByIndex(indexKey string) (*domain.UserRecord, error) {
	var rec *domain.UserRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey))
		if err != nil {
			return err
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get([]byte(userKeyPrefix + string(id)))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			rec = &domain.UserRecord{}
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("user store lookup failed: %w", err)
	}

	return rec, nil
}

// SetCurrentUser persists the current-user snapshot
func (s *Store) SetCurrentUser(rec *domain.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("unable to encode current user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(currentKey), data)
	})
}

// CurrentUser returns the persisted current-user snapshot, or
// domain.ErrUserNotFound when nobody is logged in
func (s *Store) CurrentUser() (*domain.UserRecord, error) {
	var rec *domain.UserRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec = &domain.UserRecord{}
			return json.Unmarshal(val, rec)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("current user lookup failed: %w", err)
	}

	return rec, nil
}

// ClearCurrentUser removes the current-user snapshot.  Clearing when nothing
// is stored is a no-op.
func (s *Store) ClearCurrentUser() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(currentKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
