package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joestump/joe-books/internal/config"
)

// Open builds the review store selected by cfg.Reviews.Backend.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Reviews.Backend {
	case config.ReviewsMongo:
		m := cfg.Reviews.Mongo
		return NewMongoStore(ctx, m.URI, m.Database, m.Collection, log)
	case config.ReviewsBadger:
		return OpenBadger(cfg.Reviews.Badger.Path, log)
	default:
		return nil, fmt.Errorf("unknown review backend %q", cfg.Reviews.Backend)
	}
}
