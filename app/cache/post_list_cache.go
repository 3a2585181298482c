package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"inkwell/app/models"
	"inkwell/app/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	allPostsKey    = "inkwell:posts:all"
	authorPostsKey = "inkwell:posts:author:"

	DefaultTTL = 5 * time.Minute
)

// PostListCache wraps a PostRepository and caches List results. Every write
// through it drops the cached lists the written post can appear in. Cache
// errors are logged and never fail the call.
type PostListCache struct {
	repositories.PostRepository

	store  Store
	ttl    time.Duration
	logger zerolog.Logger

	// gen counts invalidations. A list read from the repository is only
	// stored if no invalidation ran while it was being read.
	mu  sync.RWMutex
	gen uint64
}

var _ repositories.PostRepository = (*PostListCache)(nil)

func NewPostListCache(repo repositories.PostRepository, store Store, ttl time.Duration) *PostListCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostListCache{
		PostRepository: repo,
		store:          store,
		ttl:            ttl,
		logger:         log.With().Str("component", "post_list_cache").Logger(),
	}
}

func listKey(filter repositories.PostFilter) string {
	if filter.Author != "" {
		return authorPostsKey + filter.Author
	}
	return allPostsKey
}

func (c *PostListCache) List(ctx context.Context, filter repositories.PostFilter) ([]*models.BlogPost, error) {
	key := listKey(filter)

	data, err := c.store.Get(ctx, key)
	if err == nil {
		var posts []*models.BlogPost
		if err := json.Unmarshal(data, &posts); err == nil {
			return posts, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	gen := c.generation()
	posts, err := c.PostRepository.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, gen, posts)
	return posts, nil
}

func (c *PostListCache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *PostListCache) fill(ctx context.Context, key string, gen uint64, posts []*models.BlogPost) {
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.gen != gen {
		c.logger.Debug().Str("key", key).Msg("skipping cache fill after concurrent write")
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *PostListCache) Create(ctx context.Context, post *models.BlogPost) error {
	if err := c.PostRepository.Create(ctx, post); err != nil {
		return err
	}
	c.invalidate(ctx, post.Author)
	return nil
}

func (c *PostListCache) Update(ctx context.Context, id, title, content string, coverImage *string, now time.Time) (*models.BlogPost, error) {
	post, err := c.PostRepository.Update(ctx, id, title, content, coverImage, now)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, post.Author)
	return post, nil
}

func (c *PostListCache) Delete(ctx context.Context, id string) error {
	author := c.authorOf(ctx, id)
	if err := c.PostRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, author)
	return nil
}

func (c *PostListCache) IncrementViews(ctx context.Context, id string, now time.Time) (*models.BlogPost, error) {
	post, err := c.PostRepository.IncrementViews(ctx, id, now)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, post.Author)
	return post, nil
}

func (c *PostListCache) ToggleLike(ctx context.Context, id, userID string, now time.Time) (*models.BlogPost, bool, error) {
	post, liked, err := c.PostRepository.ToggleLike(ctx, id, userID, now)
	if err != nil {
		return nil, false, err
	}
	c.invalidate(ctx, post.Author)
	return post, liked, nil
}

func (c *PostListCache) PushComment(ctx context.Context, id string, comment models.Comment, now time.Time) (*models.BlogPost, error) {
	post, err := c.PostRepository.PushComment(ctx, id, comment, now)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, post.Author)
	return post, nil
}

func (c *PostListCache) PullComment(ctx context.Context, id, commentID string, now time.Time) error {
	author := c.authorOf(ctx, id)
	if err := c.PostRepository.PullComment(ctx, id, commentID, now); err != nil {
		return err
	}
	c.invalidate(ctx, author)
	return nil
}

// authorOf looks up the author before a write that does not return the post.
func (c *PostListCache) authorOf(ctx context.Context, id string) string {
	post, err := c.PostRepository.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return post.Author
}

func (c *PostListCache) invalidate(ctx context.Context, author string) {
	keys := []string{allPostsKey}
	if author != "" {
		keys = append(keys, authorPostsKey+author)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
