// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pdfsign.
//
// go-pdfsign is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jeremyhahn/go-pdfsign/pkg/keystore"
	"github.com/jeremyhahn/go-pdfsign/pkg/service"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage"
	"github.com/jeremyhahn/go-pdfsign/pkg/validation"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingKey     = errors.New("missing key parameter")
	ErrBodyTooLarge   = errors.New("request body too large")
	ErrEmptyBody      = errors.New("empty request body")
	ErrInternalError  = errors.New("internal server error")
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// writeError writes an error response to the client.
func (s *Server) writeError(w http.ResponseWriter, err error, statusCode int) {
	s.writeJSON(w, ErrorResponse{Error: err.Error(), Code: statusCode}, statusCode)
}

// writeErrorWithMessage writes an error response with a custom message.
func (s *Server) writeErrorWithMessage(w http.ResponseWriter, err error, message string, statusCode int) {
	s.writeJSON(w, ErrorResponse{Error: err.Error(), Message: message, Code: statusCode}, statusCode)
}

// mapErrorToStatusCode maps errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, keystore.ErrKeyNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, service.ErrKeyFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrMissingKey),
		errors.Is(err, ErrEmptyBody),
		errors.Is(err, service.ErrInvalidKeyFile),
		errors.Is(err, validation.ErrEmpty),
		errors.Is(err, validation.ErrTooLong),
		errors.Is(err, validation.ErrInvalidChars),
		errors.Is(err, validation.ErrTraversal):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError maps the error to a status code and writes the response.
// Internal errors are logged and not echoed to the client.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		s.logger.With(opAttr(r)...).Error(err)
		s.writeError(w, ErrInternalError, code)
		return
	}
	s.writeError(w, err, code)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", "error", err.Error())
	}
}
