package api

import (
	"github.com/joestump/joe-books/internal/reviews"
	"github.com/joestump/joe-books/internal/store"
)

// --- Book types ---

// AddBookRequest is the request body for POST /api/add_book. Author is the
// usual single-author form; Authors may list several.
type AddBookRequest struct {
	Title           string   `json:"title" example:"Clean Code"`
	Author          string   `json:"author" example:"Robert C. Martin"`
	Authors         []string `json:"authors,omitempty"`
	PublicationYear *int     `json:"publication_year,omitempty" example:"2008"`
	ImageURL        string   `json:"image_url,omitempty" example:"http://x/y.jpg"`
}

// AddBookResponse is returned by POST /api/add_book.
type AddBookResponse struct {
	Message string `json:"message" example:"Book added"`
	BookID  int64  `json:"book_id" example:"1"`
}

// BookResponse is the JSON representation of a book with its authors joined
// by ", ".
type BookResponse struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	PublicationYear *int    `json:"publication_year"`
	ImageURL        *string `json:"image_url"`
	Author          string  `json:"author"`
}

// BookListResponse is the response for GET /api/books and GET /api/search.
type BookListResponse struct {
	Books []BookResponse `json:"books"`
}

func toBookResponse(b *store.BookView) BookResponse {
	resp := BookResponse{BookID: b.BookID, Title: b.Title, Author: b.Author}
	if b.PublicationYear.Valid {
		y := int(b.PublicationYear.Int64)
		resp.PublicationYear = &y
	}
	if b.ImageURL.Valid {
		u := b.ImageURL.String
		resp.ImageURL = &u
	}
	return resp
}

func toBookList(views []*store.BookView) *BookListResponse {
	resp := &BookListResponse{Books: make([]BookResponse, 0, len(views))}
	for _, b := range views {
		resp.Books = append(resp.Books, toBookResponse(b))
	}
	return resp
}

// --- Review types ---

// AddReviewRequest is the request body for POST /api/add_review. book_id may
// be a number or a string.
type AddReviewRequest struct {
	BookID  reviews.BookID `json:"book_id" swaggertype:"string" example:"1"`
	User    string         `json:"user" example:"alice"`
	Rating  *float64       `json:"rating" example:"4.5"`
	Comment string         `json:"comment" example:"Loved it"`
}

// ReviewResponse is one stored review.
type ReviewResponse struct {
	BookID  string   `json:"book_id"`
	User    string   `json:"user"`
	Rating  *float64 `json:"rating"`
	Comment string   `json:"comment"`
}

// ReviewListResponse is the response for GET /api/reviews/{book_id}.
type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
}

// --- Common types ---

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message" example:"Review added"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
