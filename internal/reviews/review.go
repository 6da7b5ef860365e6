// Package reviews stores free-form book reviews in a document store, keyed by
// the text form of the book ID. There is no referential check against the
// catalog: a review may name a book that does not exist.
package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidReview is returned when a review is missing its book ID or the
// ID is neither a number nor a string.
var ErrInvalidReview = errors.New("invalid review")

// Store is implemented by each review backend.
type Store interface {
	Add(ctx context.Context, r Review) error
	// ListByBook returns reviews for bookID in insertion order. It never
	// returns nil.
	ListByBook(ctx context.Context, bookID string) ([]Review, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Review is one review document. Storage-assigned identifiers never appear
// here.
type Review struct {
	BookID  BookID   `json:"book_id" bson:"book_id" validate:"required"`
	User    string   `json:"user" bson:"user"`
	Rating  *float64 `json:"rating" bson:"rating"`
	Comment string   `json:"comment" bson:"comment"`
}

var validate = validator.New()

// Validate checks the fields a review cannot be stored without.
func (r Review) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: book_id is required", ErrInvalidReview)
	}
	return nil
}

// BookID is the canonical text form of a catalog book ID. In JSON it accepts
// either a number or a string.
type BookID string

// BookIDFromInt formats a catalog ID.
func BookIDFromInt(id int64) BookID {
	return BookID(strconv.FormatInt(id, 10))
}

func (id *BookID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BookID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: book_id must be a number or string", ErrInvalidReview)
	}
	// 7 and 7.0 both refer to book 7.
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*id = BookIDFromInt(int64(f))
		return nil
	}
	*id = BookID(n.String())
	return nil
}
