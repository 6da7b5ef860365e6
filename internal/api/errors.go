package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/joestump/joe-books/internal/reviews"
)

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// writeInternal logs err with the request context and answers 500 without
// leaking storage details to the client.
func writeInternal(w http.ResponseWriter, r *http.Request, log *slog.Logger, op string, err error) {
	log.ErrorContext(r.Context(), "request failed", "op", op, "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the request body into v. The
// returned error is safe to show to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return errors.New(typeErr.Field + " has the wrong type")
	case errors.As(err, &maxErr):
		return errors.New("request body too large")
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, reviews.ErrInvalidReview):
		return err
	default:
		return errors.New("invalid request body")
	}
}
