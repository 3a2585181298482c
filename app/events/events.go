package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Subjects published after a successful write.
const (
	SubjectBlogCreated   = "blog.created"
	SubjectBlogUpdated   = "blog.updated"
	SubjectBlogDeleted   = "blog.deleted"
	SubjectBlogLiked     = "blog.liked"
	SubjectBlogCommented = "blog.commented"
	SubjectUserFollowed  = "user.followed"
)

// BlogEvent describes a change to a blog aggregate.
type BlogEvent struct {
	BlogID    string    `json:"blog_id"`
	AuthorID  string    `json:"author_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Likes     int       `json:"likes"`
	Liked     bool      `json:"liked,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FollowEvent describes a follow toggle.
type FollowEvent struct {
	TargetID       string    `json:"target_id"`
	FollowerID     string    `json:"follower_id"`
	Following      bool      `json:"following"`
	FollowersCount int       `json:"followers_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher delivers events. Publishing is fire and forget: callers log a
// failure but never undo the write that caused it.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
	Close()
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON encoded events on a NATS connection.
type NATSPublisher struct {
	conn   conn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher connects to url. Subjects are published as prefix.subject
// when prefix is not empty.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	logger := log.With().Str("component", "events").Logger()
	nc, err := nats.Connect(url,
		nats.Name("inkwell"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connected successfully")
	return newNATSPublisher(nc, prefix, logger), nil
}

func newNATSPublisher(c conn, prefix string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, prefix: prefix, logger: logger}
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	if p.prefix != "" {
		subject = p.prefix + "." + subject
	}
	return p.conn.Publish(subject, data)
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

func (Nop) Close() {}
