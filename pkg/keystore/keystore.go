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

// Package keystore names, stores and loads key files. Encrypted private
// key blobs go to the removable backend and public keys to the local
// keys backend.
package keystore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage"
	"github.com/jeremyhahn/go-pdfsign/pkg/validation"
)

const (
	// PrivateKeySuffix is appended to the basename of a private key blob.
	PrivateKeySuffix = "_private.key"

	// PublicKeySuffix is appended to the basename of a public key file.
	PublicKeySuffix = "_public.pem"

	// PrivateKeyExt and PublicKeyExt select files during listing.
	PrivateKeyExt = ".key"
	PublicKeyExt  = ".pem"
)

var (
	ErrKeyExists       = errors.New("keystore: key file already exists")
	ErrKeyNotFound     = errors.New("keystore: key file not found")
	ErrNoBackend       = errors.New("keystore: backend not configured")
	ErrInvalidBasename = errors.New("keystore: invalid basename")
)

// PrivateKeyName returns "{basename}_private.key".
func PrivateKeyName(basename string) string {
	return basename + PrivateKeySuffix
}

// PublicKeyName returns "{basename}_public.pem".
func PublicKeyName(basename string) string {
	return basename + PublicKeySuffix
}

// Keystore reads and writes key files through two backends.
type Keystore struct {
	removable storage.Backend
	local     storage.Backend
	logger    *logging.Logger
}

// Option configures a Keystore.
type Option func(*Keystore)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(k *Keystore) {
		k.logger = l
	}
}

// New returns a Keystore. Either backend may be nil when the caller only
// needs the other side; operations on a missing side return ErrNoBackend.
func New(removable, local storage.Backend, opts ...Option) *Keystore {
	k := &Keystore{
		removable: removable,
		local:     local,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// SavePrivateKey writes an encrypted blob as {basename}_private.key with
// owner-only permissions. Existing files are never replaced.
func (k *Keystore) SavePrivateKey(basename string, blob []byte) (string, error) {
	if k.removable == nil {
		return "", ErrNoBackend
	}
	name, err := k.name(basename, PrivateKeySuffix)
	if err != nil {
		return "", err
	}
	if err := put(k.removable, name, blob, storage.PrivateKeyOptions()); err != nil {
		return "", err
	}
	k.logger.Debug("private key stored", "name", name, "bytes", len(blob))
	return name, nil
}

// SavePublicKey writes a PEM public key as {basename}_public.pem.
func (k *Keystore) SavePublicKey(basename string, pemBytes []byte) (string, error) {
	if k.local == nil {
		return "", ErrNoBackend
	}
	name, err := k.name(basename, PublicKeySuffix)
	if err != nil {
		return "", err
	}
	if err := put(k.local, name, pemBytes, storage.PublicKeyOptions()); err != nil {
		return "", err
	}
	k.logger.Debug("public key stored", "name", name)
	return name, nil
}

// RemovePrivateKey deletes a private key blob. It is used to roll back a
// partially created identity.
func (k *Keystore) RemovePrivateKey(name string) error {
	if k.removable == nil {
		return ErrNoBackend
	}
	return remove(k.removable, name)
}

// LoadPrivateKey returns the raw blob stored under name.
func (k *Keystore) LoadPrivateKey(name string) ([]byte, error) {
	if k.removable == nil {
		return nil, ErrNoBackend
	}
	return get(k.removable, name)
}

// LoadPublicKey returns the PEM stored under name.
func (k *Keystore) LoadPublicKey(name string) ([]byte, error) {
	if k.local == nil {
		return nil, ErrNoBackend
	}
	return get(k.local, name)
}

// ListPrivateKeys returns the sorted names of all *.key files.
func (k *Keystore) ListPrivateKeys() ([]string, error) {
	if k.removable == nil {
		return nil, ErrNoBackend
	}
	return list(k.removable, PrivateKeyExt)
}

// ListPublicKeys returns the sorted names of all *.pem files.
func (k *Keystore) ListPublicKeys() ([]string, error) {
	if k.local == nil {
		return nil, ErrNoBackend
	}
	return list(k.local, PublicKeyExt)
}

// ValidateBasename checks that basename can name a key pair.
func ValidateBasename(basename string) error {
	if err := validation.ValidateBasename(basename); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBasename, err)
	}
	return nil
}

func (k *Keystore) name(basename, suffix string) (string, error) {
	if err := ValidateBasename(basename); err != nil {
		return "", err
	}
	return basename + suffix, nil
}

func put(b storage.Backend, name string, value []byte, opts *storage.Options) error {
	err := b.Put(name, value, opts)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrKeyExists, name)
	}
	if err != nil {
		return fmt.Errorf("keystore: write %s: %w", name, err)
	}
	return nil
}

func get(b storage.Backend, name string) ([]byte, error) {
	if err := validation.ValidateFileName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}
	data, err := b.Get(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", name, err)
	}
	return data, nil
}

func remove(b storage.Backend, name string) error {
	err := b.Delete(name)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
	}
	return err
}

func list(b storage.Backend, ext string) ([]string, error) {
	names, err := b.List("")
	if err != nil {
		return nil, fmt.Errorf("keystore: list: %w", err)
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(n, "/") {
			continue
		}
		if strings.EqualFold(extOf(n), ext) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
