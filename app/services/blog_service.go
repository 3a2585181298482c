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

// BlogInput is the editable part of a blog post.
type BlogInput struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CoverImage *string `json:"coverImage"`
}

var (
	listExpansion    = models.Expansion{Author: models.ProjectContact}
	detailExpansion  = models.Expansion{Author: models.ProjectProfile, Comments: true}
	mineExpansion    = models.Expansion{Author: models.ProjectCard}
	commentExpansion = models.Expansion{Author: models.ProjectContact, Comments: true}
)

// BlogService handles business logic for the blog aggregate
type BlogService struct {
	posts     repositories.PostRepository
	users     repositories.UserRepository
	publisher events.Publisher
	now       func() time.Time
	logger    zerolog.Logger
}

// NewBlogService creates a new BlogService. A nil publisher discards events.
func NewBlogService(posts repositories.PostRepository, users repositories.UserRepository, publisher events.Publisher) *BlogService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &BlogService{
		posts:     posts,
		users:     users,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.With().Str("component", "blog_service").Logger(),
	}
}

// List returns every post, newest first, with authors expanded to contact
// details.
func (s *BlogService) List(ctx context.Context) ([]*models.BlogPostView, error) {
	posts, err := s.posts.List(ctx, repositories.PostFilter{})
	if err != nil {
		return nil, s.fail("list", err, "")
	}
	return s.expand(ctx, "list", posts, listExpansion)
}

// ListMine returns the requester's own posts, newest first.
func (s *BlogService) ListMine(ctx context.Context, requesterID string) ([]*models.BlogPostView, error) {
	posts, err := s.posts.List(ctx, repositories.PostFilter{Author: requesterID})
	if err != nil {
		return nil, s.fail("listMine", err, "")
	}
	return s.expand(ctx, "listMine", posts, mineExpansion)
}

// GetByID counts a view, persists it, then returns the fully expanded post.
func (s *BlogService) GetByID(ctx context.Context, id string) (*models.BlogPostView, error) {
	post, err := s.posts.IncrementViews(ctx, id, s.now())
	if err != nil {
		return nil, s.fail("getById", err, "Blog not found")
	}
	views, err := s.expand(ctx, "getById", []*models.BlogPost{post}, detailExpansion)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Create stores a new post owned by authorID.
func (s *BlogService) Create(ctx context.Context, authorID string, in BlogInput) (*models.BlogPostView, error) {
	if blank(in.Title) || blank(in.Content) {
		return nil, errs.InvalidInput("Please provide title and content")
	}

	coverImage := ""
	if in.CoverImage != nil {
		coverImage = *in.CoverImage
	}
	post := models.NewBlogPost("", authorID, in.Title, in.Content, coverImage, s.now())
	if err := post.ValidateNew(); err != nil {
		return nil, invalid(err)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, s.fail("create", err, "")
	}

	s.publish(ctx, events.SubjectBlogCreated, events.BlogEvent{
		BlogID:    post.ID,
		AuthorID:  post.Author,
		Title:     post.Title,
		Timestamp: post.CreatedAt,
	})

	views, err := s.expand(ctx, "create", []*models.BlogPost{post}, listExpansion)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Update edits a post owned by requesterID. Empty fields keep their value.
func (s *BlogService) Update(ctx context.Context, id, requesterID string, in BlogInput) (*models.BlogPostView, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("update", err, "Blog not found")
	}
	if !models.CanMutate(post, requesterID) {
		return nil, errs.Forbidden("Not authorized to update this blog")
	}

	now := s.now()
	post.ApplyEdit(in.Title, in.Content, in.CoverImage, now)
	if err := post.Validate(); err != nil {
		return nil, invalid(err)
	}

	updated, err := s.posts.Update(ctx, id, in.Title, in.Content, in.CoverImage, now)
	if err != nil {
		return nil, s.fail("update", err, "Blog not found")
	}

	s.publish(ctx, events.SubjectBlogUpdated, events.BlogEvent{
		BlogID:    updated.ID,
		AuthorID:  updated.Author,
		Title:     updated.Title,
		Likes:     len(updated.Likes),
		Timestamp: updated.UpdatedAt,
	})

	views, err := s.expand(ctx, "update", []*models.BlogPost{updated}, listExpansion)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Delete removes a post and its comments.
func (s *BlogService) Delete(ctx context.Context, id, requesterID string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return s.fail("delete", err, "Blog not found")
	}
	if !models.CanMutate(post, requesterID) {
		return errs.Forbidden("Not authorized to delete this blog")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return s.fail("delete", err, "Blog not found")
	}

	s.publish(ctx, events.SubjectBlogDeleted, events.BlogEvent{
		BlogID:    id,
		AuthorID:  post.Author,
		Timestamp: s.now(),
	})
	return nil
}

// ToggleLike flips the requester's like on a post.
func (s *BlogService) ToggleLike(ctx context.Context, id, requesterID string) (*models.LikeResult, error) {
	post, liked, err := s.posts.ToggleLike(ctx, id, requesterID, s.now())
	if err != nil {
		return nil, s.fail("toggleLike", err, "Blog not found")
	}

	s.publish(ctx, events.SubjectBlogLiked, events.BlogEvent{
		BlogID:    post.ID,
		AuthorID:  post.Author,
		UserID:    requesterID,
		Likes:     len(post.Likes),
		Liked:     liked,
		Timestamp: post.UpdatedAt,
	})

	return &models.LikeResult{Likes: len(post.Likes), IsLiked: liked}, nil
}

// AddComment prepends a comment and returns the post's expanded comments.
func (s *BlogService) AddComment(ctx context.Context, id, requesterID, text string) ([]models.CommentView, error) {
	if blank(text) {
		return nil, errs.InvalidInput("Comment text is required")
	}

	now := s.now()
	comment := models.NewComment("", requesterID, text, now)
	if err := comment.ValidateText(); err != nil {
		return nil, invalid(err)
	}

	post, err := s.posts.PushComment(ctx, id, comment, now)
	if err != nil {
		return nil, s.fail("addComment", err, "Blog not found")
	}

	event := events.BlogEvent{
		BlogID:    post.ID,
		AuthorID:  post.Author,
		UserID:    requesterID,
		Timestamp: now,
	}
	if len(post.Comments) > 0 {
		event.CommentID = post.Comments[0].ID
	}
	s.publish(ctx, events.SubjectBlogCommented, event)

	views, err := s.expand(ctx, "addComment", []*models.BlogPost{post}, commentExpansion)
	if err != nil {
		return nil, err
	}
	return views[0].Comments, nil
}

// DeleteComment removes a comment written by requesterID. The post author has
// no extra rights over other users' comments.
func (s *BlogService) DeleteComment(ctx context.Context, id, commentID, requesterID string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return s.fail("deleteComment", err, "Blog not found")
	}

	comment, err := post.FindComment(commentID)
	if err != nil {
		return errs.NotFound("Comment not found")
	}
	if !models.CanDeleteComment(comment, requesterID) {
		return errs.Forbidden("Not authorized to delete this comment")
	}

	if err := s.posts.PullComment(ctx, id, commentID, s.now()); err != nil {
		return s.fail("deleteComment", err, "Comment not found")
	}
	return nil
}

// expand resolves every referenced user in one lookup and builds the views.
func (s *BlogService) expand(ctx context.Context, op string, posts []*models.BlogPost, e models.Expansion) ([]*models.BlogPostView, error) {
	var ids []string
	for _, p := range posts {
		ids = append(ids, p.UserIDs(e)...)
	}

	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, s.fail(op, err, "")
	}

	views := make([]*models.BlogPostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, models.NewBlogPostView(p, users, e))
	}
	return views, nil
}

// fail maps a repository error onto the error taxonomy. ErrNotFound becomes
// NotFound with notFoundMsg when one is given; anything else is a logged
// store failure.
func (s *BlogService) fail(op string, err error, notFoundMsg string) error {
	if notFoundMsg != "" && errors.Is(err, repositories.ErrNotFound) {
		return errs.NotFound(notFoundMsg)
	}
	s.logger.Error().Err(err).Str("op", op).Msg("store failure")
	return errs.Store(op, err)
}

func (s *BlogService) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
