package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/joestump/joe-books/docs/swagger"
	"github.com/joestump/joe-books/internal/api"
	"github.com/joestump/joe-books/internal/reviews"
	"github.com/joestump/joe-books/internal/store"
	"github.com/joestump/joe-books/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Catalog store.Catalog
	Reviews reviews.Store
	Log     *slog.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(observeDuration)

	// Static assets (embedded). Use fs.Sub so the file server sees
	// css/app.css and js/app.js directly, not static/css/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(staticSub))))

	home := NewHomeHandler(deps.Catalog, deps.Log)
	r.Get("/", home.Index)
	r.Post("/theme", NewThemeHandler().Toggle)

	health := NewHealthHandler(deps.Catalog, deps.Reviews)
	r.Get("/healthz", health.Check)
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI must be registered before the /api mount claims the prefix.
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	r.Mount("/api", api.NewAPIRouter(api.Deps{
		Catalog: deps.Catalog,
		Reviews: deps.Reviews,
		Log:     deps.Log,
	}))

	return r
}
