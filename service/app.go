package service

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"inkwell/app/auth"
	"inkwell/app/cache"
	"inkwell/app/config"
	"inkwell/app/controllers"
	"inkwell/app/events"
	"inkwell/app/repositories"
	"inkwell/app/routes"
	"inkwell/app/services"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blogging API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			config.SetupLogger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return RunAppServer(ctx, cfg)
		},
	}
}

// app holds the wired handler and everything that must be released on
// shutdown.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) onClose(f func()) {
	a.closers = append(a.closers, f)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp opens the configured store and wires the optional cache and event
// publisher in front of the services. Redis and NATS failures are logged and
// the service runs without them.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var (
		posts repositories.PostRepository
		users repositories.UserRepository
		store controllers.Pinger
	)
	switch cfg.Store.Driver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Store.RequestTimeout)
		defer cancel()
		m, err := repositories.OpenMongo(connectCtx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo store: %w", err)
		}
		a.onClose(func() {
			if err := m.Close(); err != nil {
				log.Error().Err(err).Msg("error closing mongo store")
			}
		})
		posts, users, store = m.Posts, m.Users, m
	default:
		b, err := repositories.OpenBadger(repositories.BadgerOptions{
			Path:     cfg.Store.BadgerPath,
			InMemory: cfg.Store.InMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		a.onClose(func() {
			if err := b.Close(); err != nil {
				log.Error().Err(err).Msg("error closing badger store")
			}
		})
		posts, users, store = b.Posts, b.Users, b
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("store opened")

	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, list cache disabled")
		} else {
			a.onClose(func() { rs.Close() })
			posts = cache.NewPostListCache(posts, rs, cfg.Cache.TTL)
			log.Info().Str("addr", cfg.Cache.RedisAddr).Dur("ttl", cfg.Cache.TTL).Msg("list cache enabled")
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.Events.NATSURL).Msg("nats unavailable, events disabled")
		} else {
			a.onClose(p.Close)
			publisher = p
			log.Info().Str("url", cfg.Events.NATSURL).Msg("event publishing enabled")
		}
	}

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("auth.jwt_secret is empty, protected routes will reject every request")
	}

	a.handler = routes.SetupRoutes(routes.Dependencies{
		Blogs:          services.NewBlogService(posts, users, publisher),
		Users:          services.NewUserService(users, posts, publisher),
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret),
		Store:          store,
		StoreDriver:    cfg.Store.Driver,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Store.RequestTimeout,
	})
	return a, nil
}

// RunAppServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func RunAppServer(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := routes.NewServer(cfg.Addr(), a.handler, cfg.Server)
	errCh := make(chan error, 1)
	go srv.StartServer(errCh)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := srv.ShutdownGracefully(cfg.Server.ShutdownTimeout); err != nil {
			return err
		}
		return <-errCh
	}
}
