// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package errutil_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lireddit/lireddit/pkg/errutil"
)

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("TEST_ERROR").
		With("key", "value").
		Errorf("something failed")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "operation failed", logEntry["msg"])
	assert.Equal(t, "TEST_ERROR", logEntry["code"])

	ctx, ok := logEntry["context"].(map[string]any)
	require.True(t, ok, "context should be an object")
	assert.Equal(t, "value", ctx["key"])
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := errors.New("standard error")

	errutil.LogError(logger, "operation failed", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}

type ctxKey struct{}

// ctxHandler copies a context value onto every record.
type ctxHandler struct{ slog.Handler }

func (h ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		r.AddAttrs(slog.String("request_id", v))
	}
	return h.Handler.Handle(ctx, r)
}

func TestLogErrorContext_PassesContextToHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ctxHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	errutil.LogErrorContext(ctx, logger, "request failed", oops.Code("X").Errorf("boom"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "req-1", logEntry["request_id"])
	assert.Equal(t, "X", logEntry["code"])
}

func TestCode(t *testing.T) {
	t.Run("oops error", func(t *testing.T) {
		assert.Equal(t, "SOME_CODE", errutil.Code(oops.Code("SOME_CODE").Errorf("x")))
	})

	t.Run("standard error", func(t *testing.T) {
		assert.Empty(t, errutil.Code(errors.New("plain")))
	})

	t.Run("wrapped standard error keeps outer code", func(t *testing.T) {
		err := oops.Code("OUTER").Wrap(errors.New("plain"))
		assert.Equal(t, "OUTER", errutil.Code(err))
	})
}
