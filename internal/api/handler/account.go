// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package handler implements the account endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lireddit/lireddit/internal/api/apierr"
	"github.com/lireddit/lireddit/internal/api/request"
	"github.com/lireddit/lireddit/internal/api/response"
	"github.com/lireddit/lireddit/internal/auth"
	"github.com/lireddit/lireddit/internal/session"
	"github.com/lireddit/lireddit/pkg/errutil"
)

// AccountService is the part of *auth.Service the handler calls.
type AccountService interface {
	Register(ctx context.Context, creds auth.Credentials, s auth.SessionBinding) (*auth.Result, error)
	Login(ctx context.Context, creds auth.Credentials, s auth.SessionBinding) (*auth.Result, error)
	CurrentUser(ctx context.Context, s auth.SessionBinding) (*auth.Account, error)
}

// AccountHandler serves register, login, me and logout.
type AccountHandler struct {
	service AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(service AccountService, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{service: service, logger: logger}
}

// Register handles POST /api/v1/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.credentials(w, r, http.StatusCreated, h.service.Register)
}

// Login handles POST /api/v1/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.credentials(w, r, http.StatusOK, h.service.Login)
}

type credentialsOp func(context.Context, auth.Credentials, auth.SessionBinding) (*auth.Result, error)

func (h *AccountHandler) credentials(w http.ResponseWriter, r *http.Request, okStatus int, op credentialsOp) {
	var req request.CredentialsRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		apierr.InvalidRequest(w, "invalid request body")
		return
	}

	result, err := op(r.Context(), req.Credentials(), binding(r))
	if err != nil {
		apierr.Internal(w)
		return
	}
	if !result.OK() {
		response.JSON(w, http.StatusUnprocessableEntity, response.FieldErrorsResponse{Errors: result.Errors})
		return
	}
	response.JSON(w, okStatus, response.UserResponse{User: response.UserFromAccount(result.Account)})
}

// Me handles GET /api/v1/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.CurrentUser(r.Context(), binding(r))
	if err != nil {
		apierr.Internal(w)
		return
	}
	response.JSON(w, http.StatusOK, response.UserResponse{User: response.UserFromAccount(account)})
}

// Logout handles POST /api/v1/logout.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s := session.FromContext(r.Context()); s != nil {
		if err := s.Destroy(r.Context()); err != nil {
			errutil.LogErrorContext(r.Context(), h.logger, "logout failed", err)
			apierr.Internal(w)
			return
		}
	}
	response.NoContent(w)
}

// binding returns the request session as an auth.SessionBinding, keeping
// a missing session a true nil interface.
func binding(r *http.Request) auth.SessionBinding {
	if s := session.FromContext(r.Context()); s != nil {
		return s
	}
	return nil
}
