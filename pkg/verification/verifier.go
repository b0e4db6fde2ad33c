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

// Package verification checks raw signatures over a digest and defines the
// Result returned when a signed document is verified.
package verification

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// Verifier defines the interface for signature verification operations.
// It supports RSA (PKCS1v15 and PSS), ECDSA, and Ed25519 signature schemes.
type Verifier interface {
	// Verify validates a signature against the provided public key and digest.
	// The hash parameter specifies the hash algorithm used to create the digest.
	Verify(
		pub crypto.PublicKey,
		hash crypto.Hash,
		hashed, signature []byte,
		opts *VerifyOpts) error
}

type verify struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() Verifier {
	return &verify{}
}

// Verify validates a signature against the provided public key and digest.
//
// When opts is nil the algorithm follows the key type:
//   - RSA signatures use PKCS1v15 padding
//   - ECDSA signatures use ASN.1 encoding
//   - Ed25519 signatures use standard verification
//
// When opts carries KeyAttributes the key must match that algorithm.
// Every signature failure wraps ErrSignatureVerification.
func (v *verify) Verify(
	pub crypto.PublicKey,
	hash crypto.Hash,
	hashed, signature []byte,
	opts *VerifyOpts) error {

	if opts != nil && opts.KeyAttributes != nil {
		return v.verifyWithOpts(pub, hash, hashed, signature, opts)
	}
	return v.verifyDefault(pub, hash, hashed, signature)
}

func (v *verify) verifyWithOpts(
	pub crypto.PublicKey,
	hash crypto.Hash,
	hashed, signature []byte,
	opts *VerifyOpts) error {

	switch opts.KeyAttributes.KeyAlgorithm {
	case x509.RSA:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok || rsaPub == nil || rsaPub.N == nil {
			return ErrInvalidPublicKeyRSA
		}
		return verifyRSA(rsaPub, hash, hashed, signature, opts.PSSOptions)

	case x509.ECDSA:
		ecdsaPub, ok := pub.(*ecdsa.PublicKey)
		if !ok || ecdsaPub == nil {
			return ErrInvalidPublicKeyECDSA
		}
		return verifyECDSA(ecdsaPub, hashed, signature)

	case x509.Ed25519:
		ed25519Pub, ok := pub.(ed25519.PublicKey)
		if !ok || len(ed25519Pub) != ed25519.PublicKeySize {
			return ErrInvalidPublicKeyEd25519
		}
		return verifyEd25519(ed25519Pub, hashed, signature)

	default:
		return ErrInvalidSignatureAlgorithm
	}
}

func (v *verify) verifyDefault(
	pub crypto.PublicKey,
	hash crypto.Hash,
	hashed, signature []byte) error {

	switch key := pub.(type) {
	case *rsa.PublicKey:
		if key == nil || key.N == nil {
			return ErrInvalidPublicKeyRSA
		}
		return verifyRSA(key, hash, hashed, signature, nil)
	case *ecdsa.PublicKey:
		if key == nil {
			return ErrInvalidPublicKeyECDSA
		}
		return verifyECDSA(key, hashed, signature)
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return ErrInvalidPublicKeyEd25519
		}
		return verifyEd25519(key, hashed, signature)
	default:
		return ErrInvalidSignatureAlgorithm
	}
}

func verifyRSA(pub *rsa.PublicKey, hash crypto.Hash, hashed, signature []byte, pss *rsa.PSSOptions) error {
	var err error
	if pss != nil {
		err = rsa.VerifyPSS(pub, hash, hashed, signature, pss)
	} else {
		err = rsa.VerifyPKCS1v15(pub, hash, hashed, signature)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureVerification, err)
	}
	return nil
}

func verifyECDSA(pub *ecdsa.PublicKey, hashed, signature []byte) error {
	if !ecdsa.VerifyASN1(pub, hashed, signature) {
		return ErrSignatureVerification
	}
	return nil
}

func verifyEd25519(pub ed25519.PublicKey, message, signature []byte) error {
	if !ed25519.Verify(pub, message, signature) {
		return ErrSignatureVerification
	}
	return nil
}
