// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/lireddit/lireddit/internal/auth"
)

var _ auth.SessionBinding = (*Session)(nil)

// Session is one request's view of the caller's session. It is not safe
// for concurrent use.
type Session struct {
	mgr         *Manager
	w           http.ResponseWriter
	cookieToken string

	loaded bool
	key    string
	rec    *Record
}

// load reads the record for the request cookie once. A missing, malformed
// or unknown cookie leaves the session anonymous. Store faults are not cached.
func (s *Session) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	if !validToken(s.cookieToken) {
		s.loaded = true
		return nil
	}

	key := KeyForToken(s.cookieToken)
	rec, err := s.mgr.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return oops.Code("SESSION_LOAD_FAILED").With("operation", "get session").Wrap(err)
	default:
		s.key = key
		s.rec = rec
	}
	s.loaded = true
	return nil
}

// AccountID returns the account bound to the session.
func (s *Session) AccountID(ctx context.Context) (ulid.ULID, bool, error) {
	if err := s.load(ctx); err != nil {
		return ulid.ULID{}, false, err
	}
	if s.rec == nil || s.rec.AccountID == "" {
		return ulid.ULID{}, false, nil
	}
	id, err := ulid.Parse(s.rec.AccountID)
	if err != nil {
		return ulid.ULID{}, false, oops.Code("SESSION_INVALID_RECORD").
			With("account_id", s.rec.AccountID).
			Wrap(err)
	}
	return id, true, nil
}

// BindAccount stores id as the session's identity. A session without a live
// record gets a new token and cookie; an existing one keeps its token.
func (s *Session) BindAccount(ctx context.Context, id ulid.ULID) error {
	if err := s.load(ctx); err != nil {
		return err
	}

	key, token := s.key, ""
	rec := &Record{CreatedAt: s.mgr.now().UTC()}
	if s.rec != nil {
		rec.CreatedAt = s.rec.CreatedAt
	}
	if key == "" {
		var err error
		token, key, err = GenerateToken()
		if err != nil {
			return err
		}
	}
	rec.AccountID = id.String()

	if err := s.mgr.store.Put(ctx, key, rec, s.mgr.opts.TTL); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").
			With("operation", "put session").
			With("account_id", rec.AccountID).
			Wrap(err)
	}
	if token != "" {
		s.mgr.setCookie(s.w, token)
	}
	s.key, s.rec = key, rec
	return nil
}

// Destroy deletes the session record and clears the cookie.
func (s *Session) Destroy(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}
	if s.key != "" {
		if err := s.mgr.store.Delete(ctx, s.key); err != nil {
			return oops.Code("SESSION_DELETE_FAILED").With("operation", "delete session").Wrap(err)
		}
	}
	if s.cookieToken != "" || s.key != "" {
		s.mgr.clearCookie(s.w)
	}
	s.key, s.rec, s.cookieToken = "", nil, ""
	return nil
}
