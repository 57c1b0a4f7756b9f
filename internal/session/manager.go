// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package session

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// Default cookie settings.
const (
	DefaultCookieName = "qid"
	DefaultCookiePath = "/"
	DefaultTTL        = 30 * 24 * time.Hour
)

// Options configures the session cookie and record lifetime.
type Options struct {
	CookieName string
	Path       string
	TTL        time.Duration
	Secure     bool
}

// DefaultOptions returns Options with the default cookie name, path and TTL.
func DefaultOptions() Options {
	return Options{
		CookieName: DefaultCookieName,
		Path:       DefaultCookiePath,
		TTL:        DefaultTTL,
	}
}

// Manager attaches sessions backed by a Store to HTTP requests.
type Manager struct {
	store Store
	opts  Options
	now   func() time.Time
}

// NewManager creates a Manager. Empty cookie name and path fall back to the defaults.
func NewManager(store Store, opts Options) (*Manager, error) {
	if store == nil {
		return nil, oops.Code("SESSION_INVALID_MANAGER").Errorf("session store is required")
	}
	if opts.TTL <= 0 {
		return nil, oops.Code("SESSION_INVALID_MANAGER").
			With("ttl", opts.TTL.String()).
			Errorf("session ttl must be positive")
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.Path == "" {
		opts.Path = DefaultCookiePath
	}
	return &Manager{store: store, opts: opts, now: time.Now}, nil
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Load returns the session for r. Nothing is read from the store until the
// session is first used.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *Session {
	s := &Session{mgr: m, w: w}
	if c, err := r.Cookie(m.opts.CookieName); err == nil {
		s.cookieToken = c.Value
	}
	return s
}

type contextKey struct{}

// Middleware attaches a lazily loaded *Session to every request context.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.Load(w, r)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    token,
		Path:     m.opts.Path,
		MaxAge:   int(m.opts.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     m.opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
