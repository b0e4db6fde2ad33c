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

package signing

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"
)

// Signer wraps a crypto.Signer and adds digest computation from blob data
// and RSA-PSS padding selection.
type Signer struct {
	signer crypto.Signer
}

// NewSigner creates a new signer wrapping the provided crypto.Signer.
func NewSigner(signer crypto.Signer) (*Signer, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	if rsaKey, ok := signer.(*rsa.PrivateKey); ok && rsaKey == nil {
		return nil, ErrSignerRequired
	}
	return &Signer{
		signer: signer,
	}, nil
}

// Public implements crypto.Signer.
func (s *Signer) Public() crypto.PublicKey {
	return s.signer.Public()
}

// Sign implements crypto.Signer.
//
// The opts parameter can be:
//   - *SignerOpts: digest from BlobData and optional RSA-PSS
//   - *rsa.PSSOptions or crypto.Hash: passed through unchanged
func (s *Signer) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	if signerOpts, ok := opts.(*SignerOpts); ok {
		return s.signWithOpts(rand, digest, signerOpts)
	}
	return s.signer.Sign(rand, digest, opts)
}

func (s *Signer) signWithOpts(rand io.Reader, digest []byte, opts *SignerOpts) ([]byte, error) {
	actualDigest, err := opts.GetDigest(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to get digest: %w", err)
	}

	switch key := s.signer.Public().(type) {
	case *rsa.PublicKey:
		if opts.IsPSS() {
			return s.signer.Sign(rand, actualDigest, opts.PSSOptions)
		}
		return s.signer.Sign(rand, actualDigest, opts.Hash)
	case *ecdsa.PublicKey:
		return s.signer.Sign(rand, actualDigest, opts.Hash)
	case ed25519.PublicKey:
		// Ed25519 signs the message directly, not a hash
		if opts.HasBlob() {
			return s.signer.Sign(rand, opts.BlobData, crypto.Hash(0))
		}
		return s.signer.Sign(rand, actualDigest, crypto.Hash(0))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAlgorithm, key)
	}
}

// GetKeyAlgorithm returns the public key algorithm of the wrapped signer.
func (s *Signer) GetKeyAlgorithm() x509.PublicKeyAlgorithm {
	switch s.signer.Public().(type) {
	case *rsa.PublicKey:
		return x509.RSA
	case *ecdsa.PublicKey:
		return x509.ECDSA
	case ed25519.PublicKey:
		return x509.Ed25519
	default:
		return x509.UnknownPublicKeyAlgorithm
	}
}
