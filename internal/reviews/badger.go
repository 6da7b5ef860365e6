package reviews

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/joestump/joe-books/internal/metrics"
)

// Key layout: review:{hex(book_id)}:{uuidv7}
// Hex keeps arbitrary book IDs from colliding on the separator, and v7 UUIDs
// sort by creation time, so a prefix scan yields one book's reviews in
// insertion order.
const reviewPrefix = "review:"

// BadgerStore keeps reviews in an embedded Badger database.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

// OpenBadger opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func OpenBadger(path string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Disable Badger's internal logging
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	log.Info("review store opened", "backend", "badger", "path", path, "in_memory", path == "")
	return &BadgerStore{db: db, log: log}, nil
}

func bookPrefix(bookID string) []byte {
	return []byte(reviewPrefix + hex.EncodeToString([]byte(bookID)) + ":")
}

func (s *BadgerStore) Add(ctx context.Context, r Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("review key: %w", err)
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}
	key := append(bookPrefix(string(r.BookID)), id.String()...)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("reviews", "add_review").Inc()
		return fmt.Errorf("store review: %w", err)
	}
	metrics.ReviewsAddedTotal.Inc()
	return nil
}

func (s *BadgerStore) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := bookPrefix(bookID)
	out := []Review{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Review
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("reviews", "get_reviews").Inc()
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *BadgerStore) Close(context.Context) error {
	return s.db.Close()
}
