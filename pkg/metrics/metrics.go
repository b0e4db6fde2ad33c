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

// Package metrics exposes Prometheus instrumentation for key handling,
// signing and verification, plus the HTTP surface of the verification
// server.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "pdfsign"

	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelReason    = "reason"
	LabelLocation  = "location"
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelCode      = "code"
)

// Operation names.
const (
	OpKeygen   = "keygen"
	OpEncrypt  = "encrypt"
	OpDecrypt  = "decrypt"
	OpSign     = "sign"
	OpVerify   = "verify"
	OpExport   = "export"
	OpDiscover = "discover"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Key locations reported by KeysTotal.
const (
	LocationRemovable = "removable"
	LocationLocal     = "local"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of operations in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{LabelOperation},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	VerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "verifications_total",
			Help:      "Verification outcomes by reason",
		},
		[]string{LabelReason},
	)

	KeysTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "keys_total",
			Help:      "Key files found by the last discovery, by location",
		},
		[]string{LabelLocation},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path and status code",
		},
		[]string{LabelMethod, LabelPath, LabelCode},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)

	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Number of goroutines",
		},
	)

	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Bytes of allocated heap objects",
		},
	)

	MemorySysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Bytes of memory obtained from the OS",
		},
	)

	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Verification server uptime in seconds",
		},
	)
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// Enable turns recording on.
func Enable() {
	enabled.Store(true)
}

// Disable turns recording off. Collectors stay registered.
func Disable() {
	enabled.Store(false)
}

// IsEnabled reports whether recording is on.
func IsEnabled() bool {
	return enabled.Load()
}

// RecordOperation records one operation and its duration.
func RecordOperation(operation, status string, seconds float64) {
	if !IsEnabled() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError counts an error of errorType during operation.
func RecordError(operation, errorType string) {
	if !IsEnabled() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordVerification counts a verification outcome by its reason.
func RecordVerification(reason string) {
	if !IsEnabled() {
		return
	}
	VerificationsTotal.WithLabelValues(reason).Inc()
}

// SetKeyCount records how many key files were found at location.
func SetKeyCount(location string, n int) {
	if !IsEnabled() {
		return
	}
	KeysTotal.WithLabelValues(location).Set(float64(n))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path, code string, seconds float64) {
	if !IsEnabled() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
