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
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/jeremyhahn/go-pdfsign/pkg/keystore"
	"github.com/jeremyhahn/go-pdfsign/pkg/service"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage/file"
	"github.com/jeremyhahn/go-pdfsign/pkg/validation"
)

// ListKeysResponse is the body of GET /api/v1/keys.
type ListKeysResponse struct {
	Keys []string `json:"keys"`
}

// VerifyResponse is the body of POST /api/v1/verify.
type VerifyResponse struct {
	Key    string `json:"key"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// keystore opens the public key directory. A missing directory yields a
// nil keystore and no error.
func (s *Server) keystore() (*keystore.Keystore, func(), error) {
	local, err := file.Open(s.keysDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return keystore.New(nil, local, keystore.WithLogger(s.logger)), func() { _ = local.Close() }, nil
}

// ListKeysHandler handles GET /api/v1/keys.
func (s *Server) ListKeysHandler(w http.ResponseWriter, r *http.Request) {
	ks, closeFn, err := s.keystore()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer closeFn()

	resp := ListKeysResponse{Keys: []string{}}
	if ks != nil {
		names, err := ks.ListPublicKeys()
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		resp.Keys = names
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// VerifyHandler handles POST /api/v1/verify?key=<name>. The request body
// is the PDF document.
func (s *Server) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("key")
	if name == "" {
		s.writeError(w, ErrMissingKey, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateFileName(name); err != nil {
		s.writeErrorWithMessage(w, ErrInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}

	ks, closeFn, err := s.keystore()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	defer closeFn()
	if ks == nil {
		s.writeErrorWithMessage(w, keystore.ErrKeyNotFound, name, http.StatusNotFound)
		return
	}
	pemBytes, err := ks.LoadPublicKey(name)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	pub, err := service.ParsePublicKey(pemBytes)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorWithMessage(w, ErrBodyTooLarge, fmt.Sprintf("limit is %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorWithMessage(w, ErrInvalidRequest, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		s.writeError(w, ErrEmptyBody, http.StatusBadRequest)
		return
	}

	result := s.verifier.VerifyDocumentBytes(r.Context(), pub, body)
	s.writeJSON(w, VerifyResponse{
		Key:    name,
		Valid:  result.Valid,
		Reason: result.Reason,
		Detail: result.Detail,
	}, http.StatusOK)
}
