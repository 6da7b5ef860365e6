package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BooksAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joebooks_books_added_total",
		Help: "Books committed to the catalog.",
	})

	AuthorRaceRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joebooks_author_race_retries_total",
		Help: "add_book units retried after losing an author-name uniqueness race.",
	})

	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joebooks_searches_total",
		Help: "Catalog searches by outcome (hit, miss, blank).",
	}, []string{"result"})

	ReviewsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "joebooks_reviews_added_total",
		Help: "Review documents written to the review store.",
	})

	StoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "joebooks_store_errors_total",
		Help: "Storage faults by store and operation.",
	}, []string{"store", "op"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "joebooks_http_request_duration_seconds",
		Help:    "Time from request receipt to response, by route pattern.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method", "status"})
)
