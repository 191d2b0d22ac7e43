package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mfigueiredo/ledgerhawk/internal/http/importcsv"
	"github.com/mfigueiredo/ledgerhawk/internal/http/report"
	"github.com/mfigueiredo/ledgerhawk/internal/http/scan"
	"github.com/mfigueiredo/ledgerhawk/internal/http/transaction"
)

type Options struct {
	AllowedOrigins []string

	// AuthSecret enables bearer-token auth on every route when set.
	AuthSecret string
}

func New(
	scanV1 *scan.Handler,
	reportsV1 *report.Handler,
	transactionsV1 *transaction.Handler,
	importV1 *importcsv.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	if opts.AuthSecret != "" {
		router.Use(RequireToken(opts.AuthSecret))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/scan", scanV1.Routes)

		r.Route("/reports", reportsV1.Routes)

		r.Route("/transactions", transactionsV1.Routes)

		r.Route("/import", importV1.Routes)
	})

	return router
}
