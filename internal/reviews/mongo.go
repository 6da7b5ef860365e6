package reviews

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/joestump/joe-books/internal/metrics"
)

// MongoStore keeps reviews in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *slog.Logger
}

// NewMongoStore connects to uri, verifies the server is reachable and makes
// sure the book_id index exists.
func NewMongoStore(ctx context.Context, uri, database, collection string, log *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "book_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure book_id index: %w", err)
	}

	log.Info("review store connected", "backend", "mongo", "database", database, "collection", collection)
	return &MongoStore{client: client, coll: coll, log: log}, nil
}

func (s *MongoStore) Add(ctx context.Context, r Review) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("reviews", "add_review").Inc()
		return fmt.Errorf("insert review: %w", err)
	}
	metrics.ReviewsAddedTotal.Inc()
	return nil
}

func (s *MongoStore) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.M{"book_id": bookID}, opts)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("reviews", "get_reviews").Inc()
		return nil, fmt.Errorf("find reviews: %w", err)
	}

	out := []Review{}
	if err := cur.All(ctx, &out); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("reviews", "get_reviews").Inc()
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
