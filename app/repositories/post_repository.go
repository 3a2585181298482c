package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"inkwell/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db    *badger.DB
	mutex *sync.Mutex
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, mutex: &sync.Mutex{}}
}

// Create stores a new post, assigning its id when empty
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if post.ID == "" {
		post.ID = newID()
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return putPost(txn, post)
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var post *models.BlogPost
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List retrieves posts matching filter, newest first
func (r *BadgerPostRepository) List(ctx context.Context, filter PostFilter) ([]*models.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	posts := []*models.BlogPost{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var post models.BlogPost
			err := item.Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %v", err)
			}
			if filter.Author != "" && post.Author != filter.Author {
				continue
			}
			posts = append(posts, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Update overwrites the editable fields of a post
func (r *BadgerPostRepository) Update(ctx context.Context, id, title, content string, coverImage *string, now time.Time) (*models.BlogPost, error) {
	return r.mutate(ctx, id, func(post *models.BlogPost) error {
		post.ApplyEdit(title, content, coverImage, now)
		return nil
	})
}

// Delete deletes a post by ID. Comments live inside the post value, so one
// key delete removes them all.
func (r *BadgerPostRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.db.Update(func(txn *badger.Txn) error {
		key := postKey(id)

		// Verify post exists
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return txn.Delete(key)
	})
}

// IncrementViews adds one view and persists it
func (r *BadgerPostRepository) IncrementViews(ctx context.Context, id string, now time.Time) (*models.BlogPost, error) {
	return r.mutate(ctx, id, func(post *models.BlogPost) error {
		post.IncrementViews(now)
		return nil
	})
}

// ToggleLike flips userID's membership in the likes set
func (r *BadgerPostRepository) ToggleLike(ctx context.Context, id, userID string, now time.Time) (*models.BlogPost, bool, error) {
	var liked bool
	post, err := r.mutate(ctx, id, func(post *models.BlogPost) error {
		liked = post.ToggleLike(userID, now)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return post, liked, nil
}

// PushComment prepends a comment to a post
func (r *BadgerPostRepository) PushComment(ctx context.Context, id string, comment models.Comment, now time.Time) (*models.BlogPost, error) {
	if comment.ID == "" {
		comment.ID = newID()
	}
	return r.mutate(ctx, id, func(post *models.BlogPost) error {
		post.AddComment(comment, now)
		return nil
	})
}

// PullComment removes a comment from a post
func (r *BadgerPostRepository) PullComment(ctx context.Context, id, commentID string, now time.Time) error {
	_, err := r.mutate(ctx, id, func(post *models.BlogPost) error {
		if err := post.RemoveComment(commentID, now); err != nil {
			return ErrNotFound
		}
		return nil
	})
	return err
}

// Ping reports whether the database is still open
func (r *BadgerPostRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// mutate runs fn against the stored post inside one write transaction.
func (r *BadgerPostRepository) mutate(ctx context.Context, id string, fn func(*models.BlogPost) error) (*models.BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var post *models.BlogPost
	err := r.db.Update(func(txn *badger.Txn) error {
		var err error
		post, err = getPost(txn, id)
		if err != nil {
			return err
		}
		if err := fn(post); err != nil {
			return err
		}
		return putPost(txn, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func getPost(txn *badger.Txn, id string) (*models.BlogPost, error) {
	item, err := txn.Get(postKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var post models.BlogPost
	err = item.Value(func(val []byte) error {
		return unmarshalEntity(val, &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func putPost(txn *badger.Txn, post *models.BlogPost) error {
	data, err := marshalEntity(post)
	if err != nil {
		return err
	}
	return txn.Set(postKey(post.ID), data)
}
