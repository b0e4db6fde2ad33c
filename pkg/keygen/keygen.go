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

// Package keygen generates the RSA signing identity.
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-pdfsign/pkg/encoding"
	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
)

const (
	// RSAKeySize is the modulus size of every production identity.
	RSAKeySize = 4096

	// MinRSAKeySize is the smallest size accepted by WithKeySize.
	MinRSAKeySize = 2048
)

// ErrInvalidKeySize is returned for modulus sizes below MinRSAKeySize.
var ErrInvalidKeySize = errors.New("keygen: invalid key size")

// KeyPair holds a private key and the public half taken from it. The
// private key must never be written anywhere unencrypted.
type KeyPair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// PrivateKeyPEM returns the PKCS#1 PEM that keyguard seals.
func (kp *KeyPair) PrivateKeyPEM() ([]byte, error) {
	return encoding.EncodePrivateKeyPEM(kp.PrivateKey)
}

// PublicKeyPEM returns the PKIX PEM written to the keys directory.
func (kp *KeyPair) PublicKeyPEM() ([]byte, error) {
	return encoding.EncodePublicKeyPEM(kp.PublicKey)
}

// Generator creates RSA key pairs.
type Generator struct {
	bits   int
	rand   io.Reader
	logger *logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithKeySize overrides RSAKeySize, mostly so tests can use 2048 bits.
func WithKeySize(bits int) Option {
	return func(g *Generator) {
		g.bits = bits
	}
}

// WithRand replaces the entropy source.
func WithRand(r io.Reader) Option {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New returns a Generator for RSAKeySize-bit keys.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{
		bits:   RSAKeySize,
		rand:   rand.Reader,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.bits < MinRSAKeySize {
		return nil, fmt.Errorf("%w: %d bits, minimum %d", ErrInvalidKeySize, g.bits, MinRSAKeySize)
	}
	return g, nil
}

// KeySize returns the configured modulus size.
func (g *Generator) KeySize() int {
	return g.bits
}

// Generate creates a new key pair. Entropy failures are returned as-is.
func (g *Generator) Generate() (*KeyPair, error) {
	g.logger.Debug("generating RSA key pair", "bits", g.bits)
	key, err := rsa.GenerateKey(g.rand, g.bits)
	if err != nil {
		return nil, fmt.Errorf("keygen: failed to generate RSA key: %w", err)
	}
	return &KeyPair{
		PrivateKey: key,
		PublicKey:  &key.PublicKey,
	}, nil
}
