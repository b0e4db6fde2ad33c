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
	"context"
	"fmt"
	"net/http"

	"github.com/jeremyhahn/go-pdfsign/pkg/health"
	"github.com/jeremyhahn/go-pdfsign/pkg/ratelimit"
)

// HealthCheckResponse represents the response for health check endpoints.
type HealthCheckResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Checks  []health.CheckResult `json:"checks,omitempty"`
}

// HealthHandler handles GET /health. It answers as long as the process
// serves requests.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthCheckResponse{Status: "ok"}, http.StatusOK)
}

// ReadinessHandler handles GET /health/ready.
//
// A degraded result still returns 200; only an unhealthy check, or a
// server that has not finished starting, returns 503.
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := s.health.Ready(r.Context())
	overall := health.AggregateStatus(results)

	resp := HealthCheckResponse{
		Status: string(overall),
		Checks: results,
	}
	switch overall {
	case health.StatusHealthy:
		resp.Message = "All checks passed"
	case health.StatusDegraded:
		resp.Message = "Service is degraded"
	case health.StatusUnhealthy:
		resp.Message = "One or more checks failed"
	}

	code := http.StatusOK
	if overall == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, resp, code)
}

// rateLimiterCheck reports the limiter settings and the number of clients
// it currently tracks.
func rateLimiterCheck(l *ratelimit.Limiter) health.CheckFunc {
	return func(ctx context.Context) health.CheckResult {
		st := l.Stats()
		return health.CheckResult{
			Name:   "rate_limiter",
			Status: health.StatusHealthy,
			Message: fmt.Sprintf("%.0f req/min, burst %d, %d active clients",
				st.RatePerMinute, st.Burst, st.ActiveClients),
		}
	}
}
