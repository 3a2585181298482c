package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"inkwell/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// setupMongo connects to INKWELL_TEST_MONGO_URI and skips when it is unset.
func setupMongo(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("INKWELL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("INKWELL_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := OpenMongo(ctx, uri, "inkwell_test_"+primitive.NewObjectID().Hex())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Clear(context.Background())
		store.Close()
	})
	return store
}

func TestMongoPostRepository(t *testing.T) {
	store := setupMongo(t)
	repo := store.Posts
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	older := createPost(t, repo, "alice", "older", base)
	newer := createPost(t, repo, "bob", "newer", base.Add(time.Hour))

	posts, err := repo.List(ctx, PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)

	posts, err = repo.List(ctx, PostFilter{Author: "alice"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, older.ID, posts[0].ID)

	got, liked, err := repo.ToggleLike(ctx, older.ID, "bob", base)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{"bob"}, got.Likes)
	_, liked, err = repo.ToggleLike(ctx, older.ID, "bob", base)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err = repo.IncrementViews(ctx, older.ID, base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	// A clock behind the post never moves updatedAt before createdAt.
	got, err = repo.IncrementViews(ctx, older.ID, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	got, _, err = repo.ToggleLike(ctx, older.ID, "carol", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = repo.PushComment(ctx, older.ID, models.NewComment("", "bob", "first", base), base)
	require.NoError(t, err)
	got, err = repo.PushComment(ctx, older.ID, models.NewComment("", "carol", "second", base), base)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "second", got.Comments[0].Text)

	require.NoError(t, repo.PullComment(ctx, older.ID, got.Comments[0].ID, base))
	assert.ErrorIs(t, repo.PullComment(ctx, older.ID, got.Comments[0].ID, base), ErrNotFound)

	got, err = repo.Update(ctx, older.ID, "", "edited", nil, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "older", got.Title)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, repo.Delete(ctx, older.ID))
	assert.ErrorIs(t, repo.Delete(ctx, older.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, older.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoUserRepository(t *testing.T) {
	store := setupMongo(t)
	repo := store.Users
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	saveUser(t, repo, "alice", "Alice")

	users, err := repo.GetMany(ctx, []string{"alice", "nobody"})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	target, following, err := repo.ToggleFollow(ctx, "alice", "bob", now)
	require.NoError(t, err)
	assert.True(t, following)
	assert.Equal(t, []string{"bob"}, target.Followers)

	bob, err := repo.GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, bob.Following)

	_, following, err = repo.ToggleFollow(ctx, "alice", "bob", now)
	require.NoError(t, err)
	assert.False(t, following)

	_, _, err = repo.ToggleFollow(ctx, "nobody", "bob", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditUpdate(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cover := ""

	assert.Equal(t, bson.M{"$max": bson.M{"updatedAt": now}}, editUpdate(" ", "", nil, now))
	assert.Equal(t, bson.M{
		"$max": bson.M{"updatedAt": now},
		"$set": bson.M{"title": "New", "content": "Body", "coverImage": ""},
	}, editUpdate(" New ", "Body", &cover, now))
}
