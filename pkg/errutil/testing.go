// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails t unless err is an oops error whose code is code.
// The deepest code in the chain wins, as with oops itself.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	requireOops(t, err)
	assert.Equal(t, code, Code(err))
}

// AssertErrorContext fails t unless err carries key=value in its oops context.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	if assert.Contains(t, ctx, key) {
		assert.Equal(t, value, ctx[key], "context %q", key)
	}
}

// AssertSentinel fails t unless err matches target with errors.Is and
// carries code. Repositories wrap their sentinels this way.
func AssertSentinel(t testing.TB, err, target error, code string) {
	t.Helper()
	require.ErrorIs(t, err, target)
	AssertErrorCode(t, err, code)
}

func requireOops(t testing.TB, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}
