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

// Package correlation tags key and document operations with an
// operation ID so that every log line of one keygen, sign or verify run
// can be grouped together.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// OperationIDKey is the context key holding the operation ID
	OperationIDKey contextKey = "op-id"

	// LogAttr is the attribute name used when logging the operation ID
	LogAttr = "op_id"

	// OperationIDHeader is the HTTP header carrying an operation ID
	OperationIDHeader = "X-Operation-ID"
)

// WithOperationID returns a copy of ctx carrying id.
func WithOperationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, OperationIDKey, id)
}

// OperationID returns the operation ID stored in ctx, or "".
func OperationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(OperationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 operation ID.
func NewID() string {
	return uuid.New().String()
}

// Ensure returns ctx unchanged if it already carries an operation ID,
// otherwise a child context with a fresh one. The ID is returned as well.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := OperationID(ctx); id != "" {
		return ctx, id
	}
	id := NewID()
	return WithOperationID(ctx, id), id
}
