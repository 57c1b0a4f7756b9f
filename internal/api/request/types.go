// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package request holds API request bodies.
package request

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/samber/oops"

	"github.com/lireddit/lireddit/internal/auth"
)

// MaxBodyBytes bounds a request body.
const MaxBodyBytes = 1 << 16

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credentials converts the request to service input.
func (c CredentialsRequest) Credentials() auth.Credentials {
	return auth.Credentials{Username: c.Username, Password: c.Password}
}

// DecodeJSON reads a single JSON object from r into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return oops.Code("INVALID_REQUEST").With("operation", "decode body").Wrap(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return oops.Code("INVALID_REQUEST").Errorf("request body must contain a single JSON object")
	}
	return nil
}
