package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BlogPost is the blog aggregate: a post together with its embedded
// comments and likes.
type BlogPost struct {
	ID         string    `json:"_id" bson:"_id" validate:"required"`
	Title      string    `json:"title" bson:"title" validate:"required,max=200"`
	Content    string    `json:"content" bson:"content" validate:"required,max=10000"`
	CoverImage string    `json:"coverImage" bson:"coverImage" validate:"omitempty,url"`
	Author     string    `json:"author" bson:"author" validate:"required"`
	Likes      []string  `json:"likes" bson:"likes"`
	Comments   []Comment `json:"comments" bson:"comments" validate:"dive"`
	Views      int64     `json:"views" bson:"views" validate:"gte=0"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt" validate:"required"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt" validate:"required,gtefield=CreatedAt"`
}

// Comment is owned by its BlogPost and has no lifecycle of its own.
type Comment struct {
	ID        string    `json:"_id" bson:"_id" validate:"required"`
	User      string    `json:"user" bson:"user" validate:"required"`
	Text      string    `json:"text" bson:"text" validate:"required,max=500"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" validate:"required"`
}

// User is a profile referenced by posts, comments and likes.
type User struct {
	ID        string    `json:"_id" bson:"_id" validate:"required"`
	Name      string    `json:"name" bson:"name" validate:"required,max=50"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Avatar    string    `json:"avatar" bson:"avatar" validate:"omitempty,url"`
	Bio       string    `json:"bio" bson:"bio" validate:"max=500"`
	Followers []string  `json:"followers" bson:"followers"`
	Following []string  `json:"following" bson:"following"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
