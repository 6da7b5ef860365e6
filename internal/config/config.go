package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/joestump/joe-books/internal/logger"
)

// Review store backends.
const (
	ReviewsMongo  = "mongo"
	ReviewsBadger = "badger"
)

type Config struct {
	HTTP struct {
		Addr            string
		ShutdownTimeout time.Duration
	}
	DB struct {
		Driver string
		DSN    string
	}
	Reviews struct {
		Backend string
		Mongo   struct {
			URI        string
			Database   string
			Collection string
		}
		Badger struct {
			Path string
		}
	}
	Log struct {
		Level  slog.Level
		Format string
	}
}

// Load reads config from an optional .env file, the environment (BOOKS_
// prefix) and an optional joe-books.yaml.
func Load() (*Config, error) {
	_ = gotenv.Load() // optional .env

	v := viper.New()
	v.SetEnvPrefix("BOOKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("joe-books")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	// MONGO_URI is what older deployments set.
	_ = v.BindEnv("reviews.mongo.uri", "BOOKS_REVIEWS_MONGO_URI", "MONGO_URI")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "file:books.db?_pragma=busy_timeout(5000)&_txlock=immediate")
	v.SetDefault("reviews.backend", ReviewsMongo)
	v.SetDefault("reviews.mongo.database", "book_database")
	v.SetDefault("reviews.mongo.collection", "reviews")
	v.SetDefault("reviews.badger.path", "reviews.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logger.FormatText)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Reviews.Backend = strings.ToLower(v.GetString("reviews.backend"))
	cfg.Reviews.Mongo.URI = v.GetString("reviews.mongo.uri")
	cfg.Reviews.Mongo.Database = v.GetString("reviews.mongo.database")
	cfg.Reviews.Mongo.Collection = v.GetString("reviews.mongo.collection")
	cfg.Reviews.Badger.Path = v.GetString("reviews.badger.path")
	cfg.Log.Format = strings.ToLower(v.GetString("log.format"))

	timeout, err := time.ParseDuration(v.GetString("http.shutdown_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKS_HTTP_SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.HTTP.ShutdownTimeout = timeout

	level, err := logger.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKS_LOG_LEVEL: %w", err)
	}
	cfg.Log.Level = level

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("BOOKS_DB_DRIVER must be sqlite3, mysql, or postgres (got %q)", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("BOOKS_DB_DSN is required")
	}

	switch c.Reviews.Backend {
	case ReviewsMongo:
		if c.Reviews.Mongo.URI == "" {
			return fmt.Errorf("BOOKS_REVIEWS_MONGO_URI (or MONGO_URI) is required for the mongo review backend")
		}
	case ReviewsBadger:
		if c.Reviews.Badger.Path == "" {
			return fmt.Errorf("BOOKS_REVIEWS_BADGER_PATH is required for the badger review backend")
		}
	default:
		return fmt.Errorf("BOOKS_REVIEWS_BACKEND must be mongo or badger (got %q)", c.Reviews.Backend)
	}

	switch c.Log.Format {
	case logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("BOOKS_LOG_FORMAT must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
