// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package api serves the account service over JSON HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/lireddit/lireddit/internal/api/apierr"
	"github.com/lireddit/lireddit/internal/api/handler"
	"github.com/lireddit/lireddit/internal/api/middleware"
	"github.com/lireddit/lireddit/internal/session"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Logger   *slog.Logger
	Accounts handler.AccountService
	Sessions *session.Manager

	// TracerProvider for request spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// NewRouter creates the API router. Requests carrying a W3C traceparent
// header continue the caller's trace.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	accounts := handler.NewAccountHandler(cfg.Accounts, logger)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}
	api.Use(middleware.Recovery(logger))
	api.Use(middleware.Logging(logger))
	if cfg.Sessions != nil {
		api.Use(cfg.Sessions.Middleware())
	}

	api.HandleFunc("/register", accounts.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", accounts.Login).Methods(http.MethodPost)
	api.HandleFunc("/me", accounts.Me).Methods(http.MethodGet)
	api.HandleFunc("/logout", accounts.Logout).Methods(http.MethodPost)

	opts := []otelhttp.Option{
		otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{})),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	return otelhttp.NewHandler(r, "lireddit.api", opts...)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apierr.Write(w, http.StatusNotFound, apierr.CodeNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	apierr.Write(w, http.StatusMethodNotAllowed, apierr.CodeMethodNotAllow, "method not allowed")
}
