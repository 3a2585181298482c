package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"inkwell/app/errs"
	"inkwell/app/events"
	"inkwell/app/models"
	"inkwell/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() {}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type blogFixture struct {
	service   *BlogService
	posts     *mock.PostRepository
	users     *mock.UserRepository
	publisher *recordingPublisher
}

func newBlogFixture() *blogFixture {
	alice := &models.User{ID: "alice", Name: "Alice", Email: "alice@example.com", Avatar: "https://img.example/a.png", Bio: "writer", Followers: []string{"bob"}}
	bob := &models.User{ID: "bob", Name: "Bob", Email: "bob@example.com", Avatar: "https://img.example/b.png"}
	carol := &models.User{ID: "carol", Name: "Carol", Email: "carol@example.com"}

	f := &blogFixture{
		posts:     mock.NewPostRepository(),
		users:     mock.NewUserRepository(alice, bob, carol),
		publisher: &recordingPublisher{},
	}
	f.service = NewBlogService(f.posts, f.users, f.publisher)
	f.service.now = steppingClock()
	return f
}

func (f *blogFixture) create(t *testing.T, author, title, content string) *models.BlogPostView {
	t.Helper()
	view, err := f.service.Create(context.Background(), author, BlogInput{Title: title, Content: content})
	require.NoError(t, err)
	return view
}

func strPtr(s string) *string { return &s }

func TestBlogServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		f := newBlogFixture()
		created := f.create(t, "alice", "T", "C")

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Alice", created.Author.Name)
		assert.Equal(t, "alice@example.com", created.Author.Email)
		assert.Empty(t, created.Author.Avatar, "create expands contact details only")
		assert.Equal(t, int64(0), created.Views)
		assert.NotNil(t, created.Likes)
		assert.Empty(t, created.Likes)
		assert.NotNil(t, created.Comments)

		got, err := f.service.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "C", got.Content)
		assert.Equal(t, int64(1), got.Views)
		assert.Empty(t, got.Likes)
		assert.Equal(t, []string{events.SubjectBlogCreated}, f.publisher.subjects)
	})

	t.Run("cover image", func(t *testing.T) {
		f := newBlogFixture()
		view, err := f.service.Create(ctx, "alice", BlogInput{Title: "T", Content: "C", CoverImage: strPtr("https://img.example/c.png")})
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/c.png", view.CoverImage)
	})

	invalidInputs := []struct {
		name    string
		in      BlogInput
		message string
	}{
		{"missing title", BlogInput{Content: "C"}, "Please provide title and content"},
		{"blank title", BlogInput{Title: "   ", Content: "C"}, "Please provide title and content"},
		{"missing content", BlogInput{Title: "T"}, "Please provide title and content"},
		{"title too long", BlogInput{Title: strings.Repeat("t", 201), Content: "C"}, "title must be at most 200 characters"},
		{"content too long", BlogInput{Title: "T", Content: strings.Repeat("c", 10001)}, "content must be at most 10000 characters"},
		{"bad cover image", BlogInput{Title: "T", Content: "C", CoverImage: strPtr("not a url")}, "coverImage must be a valid URL"},
	}
	for _, tt := range invalidInputs {
		t.Run(tt.name, func(t *testing.T) {
			f := newBlogFixture()
			_, err := f.service.Create(ctx, "alice", tt.in)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
			assert.Equal(t, tt.message, errs.Message(err))

			posts, err := f.service.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, posts)
			assert.Empty(t, f.publisher.subjects)
		})
	}
}

func TestBlogServiceList(t *testing.T) {
	ctx := context.Background()
	f := newBlogFixture()

	first := f.create(t, "alice", "first", "C")
	second := f.create(t, "bob", "second", "C")
	third := f.create(t, "alice", "third", "C")

	t.Run("newest first with contact expansion", func(t *testing.T) {
		posts, err := f.service.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, third.ID, posts[0].ID)
		assert.Equal(t, second.ID, posts[1].ID)
		assert.Equal(t, first.ID, posts[2].ID)

		assert.Equal(t, models.UserRef{ID: "alice", Name: "Alice", Email: "alice@example.com", Projection: models.ProjectContact}, posts[0].Author)
		assert.Equal(t, models.UserRef{ID: "bob", Name: "Bob", Email: "bob@example.com", Projection: models.ProjectContact}, posts[1].Author)
	})

	t.Run("listMine filters and expands card", func(t *testing.T) {
		posts, err := f.service.ListMine(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, third.ID, posts[0].ID)
		assert.Equal(t, first.ID, posts[1].ID)
		assert.Equal(t, models.UserRef{
			ID: "alice", Name: "Alice", Email: "alice@example.com", Avatar: "https://img.example/a.png",
			Projection: models.ProjectCard,
		}, posts[0].Author)

		none, err := f.service.ListMine(ctx, "carol")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("unknown author expands to id only", func(t *testing.T) {
		ghost := f.create(t, "ghost", "orphan", "C")
		posts, err := f.service.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, ghost.ID, posts[0].ID)
		assert.Equal(t, models.UserRef{ID: "ghost"}, posts[0].Author)
	})
}

func TestBlogServiceGetByID(t *testing.T) {
	ctx := context.Background()
	f := newBlogFixture()
	post := f.create(t, "alice", "T", "C")

	_, err := f.service.AddComment(ctx, post.ID, "bob", "nice")
	require.NoError(t, err)

	t.Run("expands profile and comment badges", func(t *testing.T) {
		got, err := f.service.GetByID(ctx, post.ID)
		require.NoError(t, err)

		assert.Equal(t, models.UserRef{
			ID:         "alice",
			Name:       "Alice",
			Email:      "alice@example.com",
			Avatar:     "https://img.example/a.png",
			Bio:        "writer",
			Followers:  []string{"bob"},
			Projection: models.ProjectProfile,
		}, got.Author)
		require.Len(t, got.Comments, 1)
		assert.Equal(t, models.UserRef{ID: "bob", Name: "Bob", Avatar: "https://img.example/b.png", Projection: models.ProjectBadge}, got.Comments[0].User)
	})

	t.Run("each read counts exactly one view", func(t *testing.T) {
		before, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)

		got, err := f.service.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Views+1, got.Views)

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, got.Views, stored.Views, "view is persisted")
		assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.service.GetByID(ctx, "missing")
		require.ErrorIs(t, err, errs.ErrNotFound)
		assert.Equal(t, "Blog not found", errs.Message(err))
	})
}

func TestBlogServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("owner updates fields", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		updated, err := f.service.Update(ctx, post.ID, "alice", BlogInput{Title: "T2", Content: "C2", CoverImage: strPtr("https://img.example/x.png")})
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.Title)
		assert.Equal(t, "C2", updated.Content)
		assert.Equal(t, "https://img.example/x.png", updated.CoverImage)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
		assert.Equal(t, post.CreatedAt, updated.CreatedAt)
		assert.Equal(t, "Alice", updated.Author.Name)
		assert.Contains(t, f.publisher.subjects, events.SubjectBlogUpdated)
	})

	t.Run("omitted fields are kept", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		updated, err := f.service.Update(ctx, post.ID, "alice", BlogInput{Content: "C2"})
		require.NoError(t, err)
		assert.Equal(t, "T", updated.Title)
		assert.Equal(t, "C2", updated.Content)
	})

	t.Run("non author is forbidden and nothing changes", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		_, err := f.service.Update(ctx, post.ID, "bob", BlogInput{Title: "hacked", Content: "hacked"})
		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, "Not authorized to update this blog", errs.Message(err))

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", stored.Title)
		assert.Equal(t, "C", stored.Content)
	})

	t.Run("invalid edit", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		_, err := f.service.Update(ctx, post.ID, "alice", BlogInput{Title: strings.Repeat("t", 201)})
		require.ErrorIs(t, err, errs.ErrInvalidInput)

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "T", stored.Title)
	})

	t.Run("missing post", func(t *testing.T) {
		f := newBlogFixture()
		_, err := f.service.Update(ctx, "missing", "alice", BlogInput{Title: "T", Content: "C"})
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestBlogServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes post with comments", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")
		for _, u := range []string{"bob", "carol", "alice"} {
			_, err := f.service.AddComment(ctx, post.ID, u, "hi from "+u)
			require.NoError(t, err)
		}

		require.NoError(t, f.service.Delete(ctx, post.ID, "alice"))

		_, err := f.service.GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		_, err = f.posts.GetByID(ctx, post.ID)
		assert.Error(t, err)
		assert.Contains(t, f.publisher.subjects, events.SubjectBlogDeleted)
	})

	t.Run("non author is forbidden", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		err := f.service.Delete(ctx, post.ID, "bob")
		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, "Not authorized to delete this blog", errs.Message(err))

		_, err = f.posts.GetByID(ctx, post.ID)
		assert.NoError(t, err)
	})

	t.Run("missing post", func(t *testing.T) {
		f := newBlogFixture()
		assert.ErrorIs(t, f.service.Delete(ctx, "missing", "alice"), errs.ErrNotFound)
	})
}

func TestBlogServiceToggleLike(t *testing.T) {
	ctx := context.Background()
	f := newBlogFixture()
	post := f.create(t, "alice", "T", "C")

	res, err := f.service.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Likes: 1, IsLiked: true}, res)

	res, err = f.service.ToggleLike(ctx, post.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Likes: 2, IsLiked: true}, res)

	res, err = f.service.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, &models.LikeResult{Likes: 1, IsLiked: false}, res)

	t.Run("double toggle restores likes", func(t *testing.T) {
		before, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)

		_, err = f.service.ToggleLike(ctx, post.ID, "alice")
		require.NoError(t, err)
		_, err = f.service.ToggleLike(ctx, post.ID, "alice")
		require.NoError(t, err)

		after, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, before.Likes, after.Likes)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.service.ToggleLike(ctx, "missing", "bob")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("publishes like events", func(t *testing.T) {
		require.NotEmpty(t, f.publisher.events)
		first, ok := f.publisher.events[1].(events.BlogEvent)
		require.True(t, ok)
		assert.Equal(t, events.SubjectBlogLiked, f.publisher.subjects[1])
		assert.Equal(t, "bob", first.UserID)
		assert.True(t, first.Liked)
	})
}

func TestBlogServiceComments(t *testing.T) {
	ctx := context.Background()

	t.Run("add comment prepends and expands", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		comments, err := f.service.AddComment(ctx, post.ID, "bob", "nice")
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "nice", comments[0].Text)
		assert.Equal(t, "bob", comments[0].User.ID)

		comments, err = f.service.AddComment(ctx, post.ID, "carol", "  second  ")
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "second", comments[0].Text)
		assert.Equal(t, models.UserRef{ID: "carol", Name: "Carol", Projection: models.ProjectBadge}, comments[0].User)
		assert.Equal(t, "nice", comments[1].Text)
		assert.NotEqual(t, comments[0].ID, comments[1].ID)
		assert.Contains(t, f.publisher.subjects, events.SubjectBlogCommented)
	})

	t.Run("comment validation", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		_, err := f.service.AddComment(ctx, post.ID, "bob", "  ")
		require.ErrorIs(t, err, errs.ErrInvalidInput)
		assert.Equal(t, "Comment text is required", errs.Message(err))

		_, err = f.service.AddComment(ctx, post.ID, "bob", strings.Repeat("x", 501))
		require.ErrorIs(t, err, errs.ErrInvalidInput)
		assert.Equal(t, "text must be at most 500 characters", errs.Message(err))
	})

	t.Run("comment on missing post", func(t *testing.T) {
		f := newBlogFixture()
		_, err := f.service.AddComment(ctx, "missing", "bob", "hi")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("delete own comment", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")
		comments, err := f.service.AddComment(ctx, post.ID, "bob", "nice")
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteComment(ctx, post.ID, comments[0].ID, "bob"))

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Comments)
	})

	t.Run("post author cannot delete another user's comment", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")
		comments, err := f.service.AddComment(ctx, post.ID, "bob", "nice")
		require.NoError(t, err)

		err = f.service.DeleteComment(ctx, post.ID, comments[0].ID, "alice")
		require.ErrorIs(t, err, errs.ErrForbidden)
		assert.Equal(t, "Not authorized to delete this comment", errs.Message(err))

		stored, err := f.posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Comments, 1)
	})

	t.Run("missing comment or post", func(t *testing.T) {
		f := newBlogFixture()
		post := f.create(t, "alice", "T", "C")

		err := f.service.DeleteComment(ctx, post.ID, "missing", "bob")
		require.ErrorIs(t, err, errs.ErrNotFound)
		assert.Equal(t, "Comment not found", errs.Message(err))

		err = f.service.DeleteComment(ctx, "missing", "c", "bob")
		require.ErrorIs(t, err, errs.ErrNotFound)
		assert.Equal(t, "Blog not found", errs.Message(err))
	})
}

func TestBlogServiceStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newBlogFixture()
	post := f.create(t, "alice", "T", "C")
	f.posts.Fail = true

	calls := map[string]func() error{
		"list": func() error { _, err := f.service.List(ctx); return err },
		"mine": func() error { _, err := f.service.ListMine(ctx, "alice"); return err },
		"get":  func() error { _, err := f.service.GetByID(ctx, post.ID); return err },
		"create": func() error {
			_, err := f.service.Create(ctx, "alice", BlogInput{Title: "T", Content: "C"})
			return err
		},
		"update":  func() error { _, err := f.service.Update(ctx, post.ID, "alice", BlogInput{Title: "T"}); return err },
		"delete":  func() error { return f.service.Delete(ctx, post.ID, "alice") },
		"like":    func() error { _, err := f.service.ToggleLike(ctx, post.ID, "bob"); return err },
		"comment": func() error { _, err := f.service.AddComment(ctx, post.ID, "bob", "hi"); return err },
		"uncomment": func() error {
			return f.service.DeleteComment(ctx, post.ID, "c", "bob")
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.ErrorIs(t, err, errs.ErrStore)
			assert.Equal(t, "Server error", errs.Message(err))
			assert.NotContains(t, errs.Message(err), mock.ErrUnavailable.Error())
		})
	}

	t.Run("user lookup failure", func(t *testing.T) {
		f.posts.Fail = false
		f.users.Fail = true
		_, err := f.service.List(ctx)
		assert.ErrorIs(t, err, errs.ErrStore)
	})
}
