package repositories

import (
	"context"
	"time"

	"inkwell/app/models"
)

// PostFilter narrows List. The zero value matches every post.
type PostFilter struct {
	Author string
}

// PostRepository defines the interface for blog aggregate storage. Every
// mutating method is applied atomically to a single aggregate.
type PostRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	// List returns matching posts, newest created first.
	List(ctx context.Context, filter PostFilter) ([]*models.BlogPost, error)
	Update(ctx context.Context, id, title, content string, coverImage *string, now time.Time) (*models.BlogPost, error)
	// Delete removes the aggregate and its embedded comments in one write.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string, now time.Time) (*models.BlogPost, error)
	// ToggleLike flips userID's like and reports the new membership.
	ToggleLike(ctx context.Context, id, userID string, now time.Time) (*models.BlogPost, bool, error)
	// PushComment prepends comment, assigning its id when empty.
	PushComment(ctx context.Context, id string, comment models.Comment, now time.Time) (*models.BlogPost, error)
	PullComment(ctx context.Context, id, commentID string, now time.Time) error
	Ping(ctx context.Context) error
}

// UserRepository defines the interface for user profile storage
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetMany resolves ids to users; unknown ids are absent from the map.
	GetMany(ctx context.Context, ids []string) (map[string]*models.User, error)
	// SaveProfile creates the user or overwrites its profile fields. Follower
	// lists already stored are left untouched.
	SaveProfile(ctx context.Context, user *models.User) error
	// ToggleFollow flips followerID in target's followers and keeps the
	// follower's following list in step. The follower profile is created
	// when missing.
	ToggleFollow(ctx context.Context, targetID, followerID string, now time.Time) (*models.User, bool, error)
}
