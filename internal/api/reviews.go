package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-books/internal/reviews"
)

// reviewsAPIHandler provides REST handlers for book reviews.
type reviewsAPIHandler struct {
	reviews reviews.Store
	log     *slog.Logger
}

// registerReviewRoutes registers review routes on r.
func registerReviewRoutes(r chi.Router, rs reviews.Store, log *slog.Logger) {
	h := &reviewsAPIHandler{reviews: rs, log: log}
	r.Get("/reviews/{book_id}", h.List)
	r.Post("/add_review", h.Add)
}

// List returns the reviews stored for a book in the order they were added.
// GET /api/reviews/{book_id}
//
// @Summary      List reviews for a book
// @Description  The book is not looked up in the catalog; an unknown ID yields an empty list.
// @Tags         Reviews
// @Produce      json
// @Param        book_id  path      int  true  "Book ID"
// @Success      200      {object}  ReviewListResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /reviews/{book_id} [get]
func (h *reviewsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	list, err := h.reviews.ListByBook(r.Context(), string(reviews.BookIDFromInt(id)))
	if err != nil {
		writeInternal(w, r, h.log, "get_reviews", err)
		return
	}

	resp := &ReviewListResponse{Reviews: make([]ReviewResponse, 0, len(list))}
	for _, rv := range list {
		resp.Reviews = append(resp.Reviews, ReviewResponse{
			BookID:  string(rv.BookID),
			User:    rv.User,
			Rating:  rv.Rating,
			Comment: rv.Comment,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add stores a review. Rating and comment are free-form; only book_id is
// required.
// POST /api/add_review
//
// @Summary      Add a review
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Param        body  body      AddReviewRequest  true  "Review to add"
// @Success      201   {object}  MessageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /add_review [post]
func (h *reviewsAPIHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
		return
	}

	rv := reviews.Review{
		BookID:  req.BookID,
		User:    req.User,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := rv.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "book_id is required", "VALIDATION_ERROR")
		return
	}

	if err := h.reviews.Add(r.Context(), rv); err != nil {
		writeInternal(w, r, h.log, "add_review", err)
		return
	}

	h.log.InfoContext(r.Context(), "review added", "book_id", rv.BookID, "user", rv.User)
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Review added"})
}
