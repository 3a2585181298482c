package models

import (
	"errors"
	"strings"
	"time"
)

// ErrCommentNotFound is returned when a comment id is not present on a post.
var ErrCommentNotFound = errors.New("comment not found")

// NewBlogPost builds a fresh aggregate owned by authorID.
func NewBlogPost(id, authorID, title, content, coverImage string, now time.Time) *BlogPost {
	return &BlogPost{
		ID:         id,
		Title:      strings.TrimSpace(title),
		Content:    content,
		CoverImage: coverImage,
		Author:     authorID,
		Likes:      []string{},
		Comments:   []Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate checks if the post meets all validation requirements
func (p *BlogPost) Validate() error {
	return validate.Struct(p)
}

// ValidateNew validates a post that has not been stored yet and so has no id.
func (p *BlogPost) ValidateNew() error {
	return validate.StructExcept(p, "ID")
}

// Touch records a mutating write. updatedAt never moves before createdAt.
func (p *BlogPost) Touch(now time.Time) {
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
}

// CanMutate reports whether requesterID owns the post.
func CanMutate(p *BlogPost, requesterID string) bool {
	return p != nil && requesterID != "" && p.Author == requesterID
}

// CanDeleteComment reports whether requesterID wrote the comment.
func CanDeleteComment(c *Comment, requesterID string) bool {
	return c != nil && requesterID != "" && c.User == requesterID
}

// ApplyEdit overwrites the editable fields. Empty title or content leave the
// current value in place; a nil cover image leaves it untouched.
func (p *BlogPost) ApplyEdit(title, content string, coverImage *string, now time.Time) {
	if t := strings.TrimSpace(title); t != "" {
		p.Title = t
	}
	if content != "" {
		p.Content = content
	}
	if coverImage != nil {
		p.CoverImage = *coverImage
	}
	p.Touch(now)
}

// IsLikedBy reports whether userID is in the likes set.
func (p *BlogPost) IsLikedBy(userID string) bool {
	return contains(p.Likes, userID)
}

// ToggleLike removes userID from likes if present, otherwise appends it.
// It returns the new membership.
func (p *BlogPost) ToggleLike(userID string, now time.Time) bool {
	liked := p.IsLikedBy(userID)
	if liked {
		kept := make([]string, 0, len(p.Likes))
		for _, id := range p.Likes {
			if id != userID {
				kept = append(kept, id)
			}
		}
		p.Likes = kept
	} else {
		p.Likes = append(p.Likes, userID)
	}
	p.Touch(now)
	return !liked
}

// AddComment prepends a comment so the sequence stays newest first.
func (p *BlogPost) AddComment(comment Comment, now time.Time) {
	p.Comments = append([]Comment{comment}, p.Comments...)
	p.Touch(now)
}

// FindComment returns the comment with the given id.
func (p *BlogPost) FindComment(commentID string) (*Comment, error) {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i], nil
		}
	}
	return nil, ErrCommentNotFound
}

// RemoveComment removes a comment from the post
func (p *BlogPost) RemoveComment(commentID string, now time.Time) error {
	kept := make([]Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(p.Comments) {
		return ErrCommentNotFound
	}
	p.Comments = kept
	p.Touch(now)
	return nil
}

// IncrementViews bumps the view counter by exactly one.
func (p *BlogPost) IncrementViews(now time.Time) {
	p.Views++
	p.Touch(now)
}
