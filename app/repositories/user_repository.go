package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"inkwell/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db    *badger.DB
	mutex *sync.Mutex
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db, mutex: &sync.Mutex{}}
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetMany resolves a batch of ids in one read transaction
func (r *BadgerUserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := make(map[string]*models.User, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range uniqueIDs(ids) {
			user, err := getUser(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = user
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// SaveProfile creates the user or overwrites its profile fields
func (r *BadgerUserRepository) SaveProfile(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.db.Update(func(txn *badger.Txn) error {
		stored, err := getUser(txn, user.ID)
		if errors.Is(err, ErrNotFound) {
			return putUser(txn, user)
		}
		if err != nil {
			return err
		}
		mergeProfile(stored, user)
		return putUser(txn, stored)
	})
}

// ToggleFollow updates both users in one transaction
func (r *BadgerUserRepository) ToggleFollow(ctx context.Context, targetID, followerID string, now time.Time) (*models.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var target *models.User
	var following bool
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		target, err = getUser(txn, targetID)
		if err != nil {
			return err
		}

		follower, err := getUser(txn, followerID)
		if errors.Is(err, ErrNotFound) {
			follower = models.NewUser(followerID, now)
		} else if err != nil {
			return err
		}

		following = target.ToggleFollower(followerID, now)
		follower.SetFollowing(targetID, following, now)

		if err := putUser(txn, target); err != nil {
			return err
		}
		return putUser(txn, follower)
	})
	if err != nil {
		return nil, false, err
	}
	return target, following, nil
}

func getUser(txn *badger.Txn, id string) (*models.User, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	err = item.Value(func(val []byte) error {
		return unmarshalEntity(val, &user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func putUser(txn *badger.Txn, user *models.User) error {
	data, err := marshalEntity(user)
	if err != nil {
		return err
	}
	return txn.Set(userKey(user.ID), data)
}
