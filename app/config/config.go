package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DriverBadger = "badger"
	DriverMongo  = "mongo"

	envPrefix = "INKWELL"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port     int
	Env      string
	LogLevel string

	Store  Store
	Auth   Auth
	CORS   CORS
	Cache  Cache
	Events Events
	Server Server
}

type Store struct {
	Driver         string
	BadgerPath     string
	InMemory       bool
	MongoURI       string
	MongoDatabase  string
	RequestTimeout time.Duration
}

type Auth struct {
	JWTSecret string
}

type CORS struct {
	AllowedOrigins []string
}

type Cache struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type Events struct {
	NATSURL       string
	SubjectPrefix string
}

type Server struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("store.driver", DriverBadger)
	v.SetDefault("store.badger_path", "data/badger")
	v.SetDefault("store.in_memory", false)
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "inkwell")
	v.SetDefault("store.request_timeout", 5*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", "")

	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
}

// Load reads .env (when present), then the optional config file at path and
// INKWELL_ prefixed environment variables. With an empty path a config.yaml
// in the working directory is used if one exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Port:     v.GetInt("port"),
		Env:      v.GetString("env"),
		LogLevel: v.GetString("log_level"),
		Store: Store{
			Driver:         strings.ToLower(v.GetString("store.driver")),
			BadgerPath:     v.GetString("store.badger_path"),
			InMemory:       v.GetBool("store.in_memory"),
			MongoURI:       v.GetString("store.mongo_uri"),
			MongoDatabase:  v.GetString("store.mongo_database"),
			RequestTimeout: v.GetDuration("store.request_timeout"),
		},
		Auth: Auth{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		},
		Cache: Cache{
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
			TTL:           v.GetDuration("cache.ttl"),
		},
		Events: Events{
			NATSURL:       v.GetString("events.nats_url"),
			SubjectPrefix: v.GetString("events.subject_prefix"),
		},
		Server: Server{
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverBadger:
		if c.Store.BadgerPath == "" && !c.Store.InMemory {
			return errors.New("store.badger_path is required for the badger driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store.mongo_uri is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want %s or %s)", c.Store.Driver, DriverBadger, DriverMongo)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// splitList accepts both YAML lists and comma separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// SetupLogger configures the global zerolog logger. Development uses a
// console writer on w, other environments write JSON.
func SetupLogger(cfg *Config, w io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDevelopment() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "inkwell").Logger()
}
