package models

import (
	"strings"
	"time"
)

// NewComment builds a comment written by userID.
func NewComment(id, userID, text string, now time.Time) Comment {
	return Comment{
		ID:        id,
		User:      userID,
		Text:      strings.TrimSpace(text),
		CreatedAt: now,
	}
}

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validate.Struct(c)
}

// ValidateText checks the comment body alone, before the store assigns an id.
func (c *Comment) ValidateText() error {
	return validate.StructPartial(c, "Text")
}
