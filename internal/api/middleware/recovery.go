// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/lireddit/lireddit/internal/api/apierr"
)

// Recovery turns a handler panic into the generic 500 response.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(err)
					}
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					apierr.Internal(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
