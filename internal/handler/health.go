package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/joestump/joe-books/internal/reviews"
	"github.com/joestump/joe-books/internal/store"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether both backing stores answer.
type HealthHandler struct {
	catalog store.Catalog
	reviews reviews.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(catalog store.Catalog, rs reviews.Store) *HealthHandler {
	return &HealthHandler{catalog: catalog, reviews: rs}
}

type healthBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Check serves GET /healthz: 200 when both stores answer a ping, 503
// otherwise.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	body := healthBody{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"catalog", h.catalog.Ping},
		{"reviews", h.reviews.Ping},
	}
	for _, c := range checks {
		if err := c.ping(ctx); err != nil {
			body.Checks[c.name] = err.Error()
			body.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body.Checks[c.name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
