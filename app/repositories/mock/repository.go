package mock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"inkwell/app/models"
	"inkwell/app/repositories"
)

// ErrUnavailable is returned by every method once Fail is set.
var ErrUnavailable = errors.New("mock store unavailable")

type PostRepository struct {
	posts  map[string]*models.BlogPost
	nextID int
	mutex  sync.RWMutex

	// Fail makes every call return ErrUnavailable.
	Fail bool
}

type UserRepository struct {
	users map[string]*models.User
	mutex sync.RWMutex

	Fail bool
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[string]*models.BlogPost),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[string]*models.BlogPost)
	m.nextID = 1
}

func NewUserRepository(users ...*models.User) *UserRepository {
	m := &UserRepository{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = cloneUser(u)
	}
	return m
}

// PostRepository implementation
func (m *PostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Fail {
		return ErrUnavailable
	}

	if post.ID == "" {
		post.ID = m.newID("post")
	}
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Fail {
		return nil, ErrUnavailable
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return clonePost(post), nil
}

func (m *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.BlogPost, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Fail {
		return nil, ErrUnavailable
	}

	posts := []*models.BlogPost{}
	for _, post := range m.posts {
		if filter.Author != "" && post.Author != filter.Author {
			continue
		}
		posts = append(posts, clonePost(post))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (m *PostRepository) Update(ctx context.Context, id, title, content string, coverImage *string, now time.Time) (*models.BlogPost, error) {
	return m.mutate(id, func(post *models.BlogPost) error {
		post.ApplyEdit(title, content, coverImage, now)
		return nil
	})
}

func (m *PostRepository) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Fail {
		return ErrUnavailable
	}

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) IncrementViews(ctx context.Context, id string, now time.Time) (*models.BlogPost, error) {
	return m.mutate(id, func(post *models.BlogPost) error {
		post.IncrementViews(now)
		return nil
	})
}

func (m *PostRepository) ToggleLike(ctx context.Context, id, userID string, now time.Time) (*models.BlogPost, bool, error) {
	var liked bool
	post, err := m.mutate(id, func(post *models.BlogPost) error {
		liked = post.ToggleLike(userID, now)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return post, liked, nil
}

func (m *PostRepository) PushComment(ctx context.Context, id string, comment models.Comment, now time.Time) (*models.BlogPost, error) {
	return m.mutate(id, func(post *models.BlogPost) error {
		if comment.ID == "" {
			comment.ID = m.newID("comment")
		}
		post.AddComment(comment, now)
		return nil
	})
}

func (m *PostRepository) PullComment(ctx context.Context, id, commentID string, now time.Time) error {
	_, err := m.mutate(id, func(post *models.BlogPost) error {
		if err := post.RemoveComment(commentID, now); err != nil {
			return repositories.ErrNotFound
		}
		return nil
	})
	return err
}

func (m *PostRepository) Ping(ctx context.Context) error {
	if m.Fail {
		return ErrUnavailable
	}
	return nil
}

func (m *PostRepository) mutate(id string, fn func(*models.BlogPost) error) (*models.BlogPost, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Fail {
		return nil, ErrUnavailable
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	if err := fn(post); err != nil {
		return nil, err
	}
	return clonePost(post), nil
}

// newID must be called with the mutex held.
func (m *PostRepository) newID(kind string) string {
	id := fmt.Sprintf("%s-%04d", kind, m.nextID)
	m.nextID++
	return id
}

// UserRepository implementation
func (m *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Fail {
		return nil, ErrUnavailable
	}

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *UserRepository) GetMany(ctx context.Context, ids []string) (map[string]*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Fail {
		return nil, ErrUnavailable
	}

	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if user, exists := m.users[id]; exists {
			users[id] = cloneUser(user)
		}
	}
	return users, nil
}

func (m *UserRepository) SaveProfile(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Fail {
		return ErrUnavailable
	}

	stored, exists := m.users[user.ID]
	if !exists {
		m.users[user.ID] = cloneUser(user)
		return nil
	}
	stored.Name, stored.Email, stored.Avatar, stored.Bio = user.Name, user.Email, user.Avatar, user.Bio
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (m *UserRepository) ToggleFollow(ctx context.Context, targetID, followerID string, now time.Time) (*models.User, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Fail {
		return nil, false, ErrUnavailable
	}

	target, exists := m.users[targetID]
	if !exists {
		return nil, false, repositories.ErrNotFound
	}
	follower, exists := m.users[followerID]
	if !exists {
		follower = models.NewUser(followerID, now)
		m.users[followerID] = follower
	}

	following := target.ToggleFollower(followerID, now)
	follower.SetFollowing(targetID, following, now)
	return cloneUser(target), following, nil
}

func clonePost(p *models.BlogPost) *models.BlogPost {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	return &c
}
