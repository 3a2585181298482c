package models

import "time"

// BlogPostView is a BlogPost with its user references expanded.
type BlogPostView struct {
	ID         string        `json:"_id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	CoverImage string        `json:"coverImage"`
	Author     UserRef       `json:"author"`
	Likes      []string      `json:"likes"`
	Comments   []CommentView `json:"comments"`
	Views      int64         `json:"views"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// CommentView is a Comment with its user expanded.
type CommentView struct {
	ID        string    `json:"_id"`
	User      UserRef   `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expansion describes how a post's references are expanded.
type Expansion struct {
	Author   Projection
	Comments bool
}

// UserIDs returns every user id a view of p may need to resolve.
func (p *BlogPost) UserIDs(e Expansion) []string {
	ids := []string{p.Author}
	if e.Comments {
		for _, c := range p.Comments {
			ids = append(ids, c.User)
		}
	}
	return ids
}

// NewBlogPostView expands p using the users looked up by id. Comment users
// are expanded as badges only when e.Comments is set.
func NewBlogPostView(p *BlogPost, users map[string]*User, e Expansion) *BlogPostView {
	likes := append([]string{}, p.Likes...)
	comments := make([]CommentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		ref := UserRef{ID: c.User}
		if e.Comments {
			ref = Project(c.User, users[c.User], ProjectBadge)
		}
		comments = append(comments, CommentView{
			ID:        c.ID,
			User:      ref,
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	return &BlogPostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		CoverImage: p.CoverImage,
		Author:     Project(p.Author, users[p.Author], e.Author),
		Likes:      likes,
		Comments:   comments,
		Views:      p.Views,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// FollowResult is the outcome of a follow toggle.
type FollowResult struct {
	IsFollowing    bool `json:"isFollowing"`
	FollowersCount int  `json:"followersCount"`
}
