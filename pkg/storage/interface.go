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

// Package storage abstracts where key files live. The removable drive
// holding encrypted private keys and the local public key directory are
// both exposed as a Backend, so the keystore and discovery code never
// touch paths directly.
package storage

import (
	"io/fs"
)

// Backend is a flat key/value store addressed by relative names such as
// "alice_private.key". Implementations must be safe for concurrent use.
type Backend interface {
	// Get returns the stored bytes. Returns ErrNotFound if name is absent.
	Get(name string) ([]byte, error)

	// Put stores value under name, replacing any previous value.
	Put(name string, value []byte, opts *Options) error

	// Delete removes name. Returns ErrNotFound if name is absent.
	Delete(name string) error

	// List returns all names starting with prefix, sorted.
	List(prefix string) ([]string, error)

	// Exists reports whether name is stored.
	Exists(name string) (bool, error)

	// Close releases resources. Further calls return ErrClosed where
	// the implementation tracks state.
	Close() error
}

// Options tunes a single Put.
type Options struct {
	// Permissions sets the file mode for file-based backends
	Permissions fs.FileMode

	// NoOverwrite makes Put fail with ErrAlreadyExists if name exists
	NoOverwrite bool
}

// PrivateKeyOptions returns the options used for encrypted private key
// blobs: owner read/write only, never silently replaced.
func PrivateKeyOptions() *Options {
	return &Options{Permissions: 0o600, NoOverwrite: true}
}

// PublicKeyOptions returns the options used for public key files.
func PublicKeyOptions() *Options {
	return &Options{Permissions: 0o644, NoOverwrite: true}
}
