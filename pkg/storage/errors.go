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

package storage

import "errors"

var (
	// ErrClosed is returned when attempting to use a closed storage.
	ErrClosed = errors.New("storage: closed")

	// ErrNotFound is returned when a name is not stored.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists is returned by Put with NoOverwrite when the name exists.
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrInvalidName is returned for empty names or names escaping the root.
	ErrInvalidName = errors.New("storage: invalid name")
)
