// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package apierr writes JSON error envelopes.
package apierr

import (
	"encoding/json"
	"net/http"
)

// APIError is the body of a non-field error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeMethodNotAllow = "METHOD_NOT_ALLOWED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// Write writes an error envelope with the given status.
func Write(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: APIError{Code: code, Message: message}})
}

// InvalidRequest writes a 400 INVALID_REQUEST response.
func InvalidRequest(w http.ResponseWriter, message string) {
	Write(w, http.StatusBadRequest, CodeInvalidRequest, message)
}

// Internal writes the generic 500 response. Details stay in the logs.
func Internal(w http.ResponseWriter) {
	Write(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
}
