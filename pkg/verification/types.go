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

package verification

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
)

// Reasons reported in a Result. Each failure mode has its own text so a
// user can tell an unsigned file from a tampered one or an I/O problem.
const (
	ReasonVerified           = "Signature verified successfully"
	ReasonNotSigned          = "Document is not signed"
	ReasonMalformedSignature = "Signature is malformed"
	ReasonSignatureMismatch  = "Signature does not match the document or public key"
	ReasonUnreadableDocument = "Document could not be read"
	ReasonUnreadableKey      = "Public key could not be read"
)

// Result is the outcome of verifying a signed document. Verification never
// fails with an error; every outcome is a Result.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`

	// Detail carries the underlying error text for failures, if any.
	Detail string `json:"detail,omitempty"`
}

// Verified returns a successful Result.
func Verified() *Result {
	return &Result{Valid: true, Reason: ReasonVerified}
}

// Failed returns an invalid Result with the given reason. err may be nil.
func Failed(reason string, err error) *Result {
	r := &Result{Valid: false, Reason: reason}
	if err != nil {
		r.Detail = err.Error()
	}
	return r
}

// String returns the reason, with the detail appended for failures.
func (r *Result) String() string {
	if r.Valid || r.Detail == "" {
		return r.Reason
	}
	return r.Reason + ": " + r.Detail
}

// KeyAttributes contains the minimal key attributes needed for verification.
type KeyAttributes struct {
	// KeyAlgorithm specifies the public key algorithm (RSA, ECDSA, Ed25519)
	KeyAlgorithm x509.PublicKeyAlgorithm

	// Hash specifies the hash function to use with this key
	Hash crypto.Hash
}

// VerifyOpts contains optional parameters for signature verification operations.
type VerifyOpts struct {
	// KeyAttributes specifies the key algorithm and other key properties
	KeyAttributes *KeyAttributes

	// PSSOptions specifies RSA-PSS specific parameters (salt length, hash function)
	// If nil when verifying RSA signatures, PKCS1v15 is used instead
	PSSOptions *rsa.PSSOptions
}
