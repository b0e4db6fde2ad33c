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
	"net/http"

	"github.com/jeremyhahn/go-pdfsign/pkg/correlation"
	"github.com/jeremyhahn/go-pdfsign/pkg/validation"
)

// maxOperationIDLen bounds client supplied operation IDs.
const maxOperationIDLen = 64

// CorrelationMiddleware takes the operation ID from the X-Operation-ID
// header, or generates one, stores it in the request context and echoes
// it in the response headers. The service reuses it for its own log
// lines.
func (s *Server) CorrelationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(correlation.OperationIDHeader)
			if id == "" || len(id) > maxOperationIDLen || validation.ValidateFileName(id) != nil {
				id = correlation.NewID()
			}

			r = r.WithContext(correlation.WithOperationID(r.Context(), id))
			w.Header().Set(correlation.OperationIDHeader, id)

			next.ServeHTTP(w, r)
		})
	}
}
