// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lireddit/lireddit/pkg/errutil"
)

var tracer = otel.Tracer("lireddit/auth")

// Operation names reported to the Recorder.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpCurrentUser = "current_user"
)

// Outcomes reported to the Recorder.
const (
	OutcomeSuccess    = "success"
	OutcomeFieldError = "field_error"
	OutcomeError      = "error"
)

// Recorder receives one outcome per service operation.
type Recorder interface {
	RecordOutcome(operation, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordOutcome(string, string) {}

// Service provides registration, login and current-user lookup.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for successful operations and faults.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for operation spans. The default is the
// global provider's "lireddit/auth" tracer.
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService creates a new Service.
func NewService(accounts AccountRepository, hasher PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_SERVICE").Errorf("password hasher is required")
	}
	s := &Service{
		accounts: accounts,
		hasher:   hasher,
		logger:   slog.Default(),
		recorder: noopRecorder{},
		tracer:   tracer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the credentials, creates an account and binds it to
// the session. Input problems and a taken username come back as field
// errors in the Result; the returned error is reserved for faults.
func (s *Service) Register(ctx context.Context, creds Credentials, session SessionBinding) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	if session == nil {
		return nil, s.fault(ctx, OpRegister, oops.Code("AUTH_REGISTER_FAILED").Errorf("session binding is required"))
	}

	if fe := ValidateCredentials(creds); fe != nil {
		s.record(ctx, OpRegister, OutcomeFieldError)
		return failed(*fe), nil
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, s.fault(ctx, OpRegister, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err))
	}

	account := NewAccount(creds.Username, hash)
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			s.record(ctx, OpRegister, OutcomeFieldError)
			return failed(FieldError{Field: FieldUsername, Message: MsgUsernameTaken}), nil
		}
		return nil, s.fault(ctx, OpRegister, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			With("username", creds.Username).
			Wrap(err))
	}

	if err := session.BindAccount(ctx, account.ID); err != nil {
		// The account must not outlive a registration the caller saw fail.
		if delErr := s.accounts.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove account after session bind failure",
				"account_id", account.ID.String(),
				"error", delErr)
		}
		return nil, s.fault(ctx, OpRegister, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "bind session").
			With("account_id", account.ID.String()).
			Wrap(err))
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", account.ID.String(),
		"username", account.Username)
	s.record(ctx, OpRegister, OutcomeSuccess)
	return succeeded(account), nil
}

// Login checks the credentials against the stored hash and binds the
// account to the session on success.
func (s *Service) Login(ctx context.Context, creds Credentials, session SessionBinding) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	if session == nil {
		return nil, s.fault(ctx, OpLogin, oops.Code("AUTH_LOGIN_FAILED").Errorf("session binding is required"))
	}

	account, err := s.accounts.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.record(ctx, OpLogin, OutcomeFieldError)
			return failed(FieldError{Field: FieldUsername, Message: MsgUnknownUsername}), nil
		}
		return nil, s.fault(ctx, OpLogin, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by username").
			Wrap(err))
	}

	valid, err := s.hasher.Verify(creds.Password, account.PasswordHash)
	if err != nil {
		return nil, s.fault(ctx, OpLogin, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("account_id", account.ID.String()).
			Wrap(err))
	}
	if !valid {
		s.record(ctx, OpLogin, OutcomeFieldError)
		return failed(FieldError{Field: FieldPassword, Message: MsgIncorrectPass}), nil
	}

	if err := session.BindAccount(ctx, account.ID); err != nil {
		return nil, s.fault(ctx, OpLogin, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "bind session").
			With("account_id", account.ID.String()).
			Wrap(err))
	}

	s.logger.InfoContext(ctx, "account logged in", "account_id", account.ID.String())
	s.record(ctx, OpLogin, OutcomeSuccess)
	return succeeded(account), nil
}

// CurrentUser returns the account bound to the session, or nil when the
// session is anonymous or its account no longer exists.
func (s *Service) CurrentUser(ctx context.Context, session SessionBinding) (*Account, error) {
	ctx, span := s.tracer.Start(ctx, "auth.current_user")
	defer span.End()

	if session == nil {
		s.record(ctx, OpCurrentUser, OutcomeSuccess)
		return nil, nil
	}

	id, ok, err := session.AccountID(ctx)
	if err != nil {
		return nil, s.fault(ctx, OpCurrentUser, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "read session").
			Wrap(err))
	}
	if !ok {
		s.record(ctx, OpCurrentUser, OutcomeSuccess)
		return nil, nil
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.DebugContext(ctx, "session bound to missing account", "account_id", id.String())
			s.record(ctx, OpCurrentUser, OutcomeSuccess)
			return nil, nil
		}
		return nil, s.fault(ctx, OpCurrentUser, oops.Code("AUTH_CURRENT_USER_FAILED").
			With("operation", "get account by id").
			With("account_id", id.String()).
			Wrap(err))
	}

	s.record(ctx, OpCurrentUser, OutcomeSuccess)
	return account, nil
}

func (s *Service) record(ctx context.Context, op, outcome string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("auth.outcome", outcome))
	s.recorder.RecordOutcome(op, outcome)
}

func (s *Service) fault(ctx context.Context, op string, err error) error {
	errutil.LogErrorContext(ctx, s.logger, op+" failed", err)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if code := errutil.Code(err); code != "" {
		span.SetAttributes(attribute.String("error.code", code))
	}
	s.record(ctx, op, OutcomeError)
	return err
}
