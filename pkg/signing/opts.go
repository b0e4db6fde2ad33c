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
	"crypto/rsa"
)

// SignerOpts extends crypto.SignerOpts with blob-based signing, where the
// digest is computed from BlobData, and with RSA-PSS padding.
type SignerOpts struct {
	// BlobData is the raw data to sign. If set, the signer computes the
	// digest with Hash.
	BlobData []byte

	// Hash is used both for digest creation and for the signature algorithm.
	Hash crypto.Hash

	// PSSOptions selects RSA-PSS padding. If nil, PKCS#1 v1.5 is used.
	PSSOptions *rsa.PSSOptions

	// hasBlob marks BlobData as set, including empty data.
	hasBlob bool
}

// HashFunc implements crypto.SignerOpts.
func (opts *SignerOpts) HashFunc() crypto.Hash {
	return opts.Hash
}

// NewSignerOpts creates a new SignerOpts with the specified hash function.
func NewSignerOpts(hash crypto.Hash) *SignerOpts {
	return &SignerOpts{
		Hash: hash,
	}
}

// WithBlobData sets the blob data and returns the opts for chaining.
func (opts *SignerOpts) WithBlobData(data []byte) *SignerOpts {
	opts.BlobData = data
	opts.hasBlob = true
	return opts
}

// WithPSSOptions sets the RSA-PSS options and returns the opts for chaining.
func (opts *SignerOpts) WithPSSOptions(pss *rsa.PSSOptions) *SignerOpts {
	opts.PSSOptions = pss
	return opts
}

// IsPSS returns true if this is an RSA-PSS signing operation.
func (opts *SignerOpts) IsPSS() bool {
	return opts.PSSOptions != nil
}

// HasBlob reports whether the digest is computed from BlobData. It is true
// after WithBlobData, even for empty data, or when BlobData is non-nil.
func (opts *SignerOpts) HasBlob() bool {
	return opts.hasBlob || opts.BlobData != nil
}

// GetDigest returns the digest to sign. If blob data was set, it is hashed
// with Hash; otherwise precomputed is returned unchanged.
func (opts *SignerOpts) GetDigest(precomputed []byte) ([]byte, error) {
	if !opts.HasBlob() {
		return precomputed, nil
	}
	// Ed25519 signs the message itself.
	if opts.Hash == 0 {
		return opts.BlobData, nil
	}
	if !opts.Hash.Available() {
		return nil, ErrInvalidHashFunction
	}
	hasher := opts.Hash.New()
	if _, err := hasher.Write(opts.BlobData); err != nil {
		return nil, err
	}
	return hasher.Sum(nil), nil
}
