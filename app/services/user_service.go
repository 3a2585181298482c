package services

import (
	"context"
	"errors"
	"time"

	"inkwell/app/errs"
	"inkwell/app/events"
	"inkwell/app/models"
	"inkwell/app/repositories"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ProfileInput is the editable part of a user profile.
type ProfileInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

// Profile is a user together with the posts they wrote.
type Profile struct {
	User  *models.User           `json:"user"`
	Blogs []*models.BlogPostView `json:"blogs"`
}

// UserService handles profiles and follow relationships
type UserService struct {
	users     repositories.UserRepository
	posts     repositories.PostRepository
	publisher events.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

func NewUserService(users repositories.UserRepository, posts repositories.PostRepository, publisher events.Publisher) *UserService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &UserService{
		users:     users,
		posts:     posts,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.With().Str("component", "user_service").Logger(),
	}
}

// GetProfile returns a user and their posts, newest first.
func (s *UserService) GetProfile(ctx context.Context, id string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("getProfile", err, "User not found")
	}

	posts, err := s.posts.List(ctx, repositories.PostFilter{Author: id})
	if err != nil {
		return nil, s.fail("getProfile", err, "")
	}

	users := map[string]*models.User{user.ID: user}
	blogs := make([]*models.BlogPostView, 0, len(posts))
	for _, p := range posts {
		blogs = append(blogs, models.NewBlogPostView(p, users, mineExpansion))
	}
	return &Profile{User: user, Blogs: blogs}, nil
}

// UpdateProfile creates or edits the requester's profile.
func (s *UserService) UpdateProfile(ctx context.Context, requesterID string, in ProfileInput) (*models.User, error) {
	now := s.now()
	user, err := s.users.GetByID(ctx, requesterID)
	if errors.Is(err, repositories.ErrNotFound) {
		user = models.NewUser(requesterID, now)
	} else if err != nil {
		return nil, s.fail("updateProfile", err, "")
	}

	user.ApplyProfile(in.Name, in.Email, in.Avatar, in.Bio, now)
	if err := user.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := s.users.SaveProfile(ctx, user); err != nil {
		return nil, s.fail("updateProfile", err, "")
	}
	return user, nil
}

// ToggleFollow makes requesterID follow or unfollow targetID.
func (s *UserService) ToggleFollow(ctx context.Context, targetID, requesterID string) (*models.FollowResult, error) {
	if targetID == requesterID {
		return nil, errs.InvalidInput("You cannot follow yourself")
	}

	now := s.now()
	target, following, err := s.users.ToggleFollow(ctx, targetID, requesterID, now)
	if err != nil {
		return nil, s.fail("toggleFollow", err, "User not found")
	}

	result := &models.FollowResult{IsFollowing: following, FollowersCount: len(target.Followers)}
	if err := s.publisher.Publish(ctx, events.SubjectUserFollowed, events.FollowEvent{
		TargetID:       targetID,
		FollowerID:     requesterID,
		Following:      following,
		FollowersCount: result.FollowersCount,
		Timestamp:      now,
	}); err != nil {
		s.logger.Warn().Err(err).Str("subject", events.SubjectUserFollowed).Msg("failed to publish event")
	}
	return result, nil
}

func (s *UserService) fail(op string, err error, notFoundMsg string) error {
	if notFoundMsg != "" && errors.Is(err, repositories.ErrNotFound) {
		return errs.NotFound(notFoundMsg)
	}
	s.logger.Error().Err(err).Str("op", op).Msg("store failure")
	return errs.Store(op, err)
}
