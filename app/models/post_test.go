package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostValidation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		post    *BlogPost
		wantErr bool
	}{
		{
			name:    "valid post",
			post:    NewBlogPost("p1", "alice", "Valid Title", "Some content", "", now),
			wantErr: false,
		},
		{
			name:    "empty title",
			post:    NewBlogPost("p1", "alice", "   ", "Some content", "", now),
			wantErr: true,
		},
		{
			name:    "title too long",
			post:    NewBlogPost("p1", "alice", strings.Repeat("a", 201), "Some content", "", now),
			wantErr: true,
		},
		{
			name:    "empty content",
			post:    NewBlogPost("p1", "alice", "Title", "", "", now),
			wantErr: true,
		},
		{
			name:    "content too long",
			post:    NewBlogPost("p1", "alice", "Title", strings.Repeat("a", 10001), "", now),
			wantErr: true,
		},
		{
			name:    "cover image must be a url",
			post:    NewBlogPost("p1", "alice", "Title", "Content", "not a url", now),
			wantErr: true,
		},
		{
			name:    "cover image url",
			post:    NewBlogPost("p1", "alice", "Title", "Content", "https://example.com/a.png", now),
			wantErr: false,
		},
		{
			name:    "missing author",
			post:    NewBlogPost("p1", "", "Title", "Content", "", now),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewBlogPost(t *testing.T) {
	now := time.Now()
	post := NewBlogPost("p1", "alice", "  Spaced  ", "Body", "", now)

	assert.Equal(t, "Spaced", post.Title)
	assert.Equal(t, "alice", post.Author)
	assert.Empty(t, post.Likes)
	assert.NotNil(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.Zero(t, post.Views)
	assert.Equal(t, now, post.CreatedAt)
	assert.Equal(t, now, post.UpdatedAt)
}

func TestPostTouch(t *testing.T) {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	post := NewBlogPost("p1", "alice", "Title", "Body", "", created)

	post.Touch(created.Add(time.Hour))
	assert.Equal(t, created.Add(time.Hour), post.UpdatedAt)

	post.Touch(created.Add(-time.Hour))
	assert.Equal(t, created, post.UpdatedAt, "updatedAt never precedes createdAt")
}

func TestCanMutate(t *testing.T) {
	post := NewBlogPost("p1", "alice", "Title", "Body", "", time.Now())

	assert.True(t, CanMutate(post, "alice"))
	assert.False(t, CanMutate(post, "bob"))
	assert.False(t, CanMutate(post, ""))
	assert.False(t, CanMutate(nil, "alice"))
}

func TestApplyEdit(t *testing.T) {
	created := time.Now()
	post := NewBlogPost("p1", "alice", "Title", "Body", "https://example.com/a.png", created)

	t.Run("overwrites fields", func(t *testing.T) {
		cover := ""
		post.ApplyEdit("New", "New body", &cover, created.Add(time.Minute))
		assert.Equal(t, "New", post.Title)
		assert.Equal(t, "New body", post.Content)
		assert.Equal(t, "", post.CoverImage)
		assert.Equal(t, created.Add(time.Minute), post.UpdatedAt)
		assert.Equal(t, "alice", post.Author)
	})

	t.Run("empty values keep stored ones", func(t *testing.T) {
		post.ApplyEdit("", "", nil, created.Add(2*time.Minute))
		assert.Equal(t, "New", post.Title)
		assert.Equal(t, "New body", post.Content)
	})
}

func TestToggleLike(t *testing.T) {
	now := time.Now()
	post := NewBlogPost("p1", "alice", "Title", "Body", "", now)

	liked := post.ToggleLike("bob", now)
	assert.True(t, liked)
	assert.Equal(t, []string{"bob"}, post.Likes)

	liked = post.ToggleLike("carol", now)
	assert.True(t, liked)
	assert.Len(t, post.Likes, 2)

	liked = post.ToggleLike("bob", now)
	assert.False(t, liked)
	assert.Equal(t, []string{"carol"}, post.Likes)
	assert.False(t, post.IsLikedBy("bob"))
}

func TestPostCommentManagement(t *testing.T) {
	now := time.Now()
	post := NewBlogPost("p1", "alice", "Title", "Body", "", now)

	t.Run("add comment keeps newest first", func(t *testing.T) {
		post.AddComment(NewComment("c1", "bob", "first", now), now)
		post.AddComment(NewComment("c2", "carol", "second", now.Add(time.Second)), now.Add(time.Second))

		require.Len(t, post.Comments, 2)
		assert.Equal(t, "c2", post.Comments[0].ID)
		assert.Equal(t, "c1", post.Comments[1].ID)
	})

	t.Run("find comment", func(t *testing.T) {
		c, err := post.FindComment("c1")
		require.NoError(t, err)
		assert.Equal(t, "bob", c.User)

		_, err = post.FindComment("missing")
		assert.ErrorIs(t, err, ErrCommentNotFound)
	})

	t.Run("remove existing comment", func(t *testing.T) {
		err := post.RemoveComment("c2", now)
		assert.NoError(t, err)
		require.Len(t, post.Comments, 1)
		assert.Equal(t, "c1", post.Comments[0].ID)
	})

	t.Run("remove non-existent comment", func(t *testing.T) {
		err := post.RemoveComment("c999", now)
		assert.ErrorIs(t, err, ErrCommentNotFound)
	})
}

func TestCanDeleteComment(t *testing.T) {
	c := NewComment("c1", "bob", "hi", time.Now())

	assert.True(t, CanDeleteComment(&c, "bob"))
	assert.False(t, CanDeleteComment(&c, "alice"))
	assert.False(t, CanDeleteComment(nil, "bob"))
}

func TestIncrementViews(t *testing.T) {
	now := time.Now()
	post := NewBlogPost("p1", "alice", "Title", "Body", "", now)

	post.IncrementViews(now)
	post.IncrementViews(now)
	assert.Equal(t, int64(2), post.Views)
}

func TestValidateNewIgnoresMissingID(t *testing.T) {
	post := NewBlogPost("", "alice", "Title", "Body", "", time.Now())
	assert.Error(t, post.Validate())
	assert.NoError(t, post.ValidateNew())

	post.Title = ""
	assert.Error(t, post.ValidateNew())
}
