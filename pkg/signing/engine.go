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

// Package signing signs and verifies PDF documents.
//
// A signature is SHA-256 over the document's canonical text, signed with
// the holder's key (RSA PKCS#1 v1.5 by default) and stored base64 encoded
// in a single custom Info dictionary entry. A document with that entry is
// considered signed and is never signed again.
package signing

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jeremyhahn/go-pdfsign/pkg/document"
	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
)

const (
	// DefaultPropertyName is the Info dictionary key holding the signature.
	DefaultPropertyName = "PAdESSignature"

	// SignedPrefix is prepended to the file name of a signed copy.
	SignedPrefix = "SIGNED_"
)

// Scheme is the RSA padding scheme.
type Scheme string

const (
	SchemePKCS1v15 Scheme = "pkcs1v15"
	SchemePSS      Scheme = "pss"
)

// ParseScheme maps a configuration value to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemePKCS1v15:
		return SchemePKCS1v15, nil
	case SchemePSS:
		return SchemePSS, nil
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedAlgorithm, s)
	}
}

// Engine signs and verifies documents. It holds only configuration and is
// safe to share.
type Engine struct {
	canonicalizer document.Canonicalizer
	verifier      verification.Verifier
	property      string
	scheme        Scheme
	rand          io.Reader
	logger        *logging.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCanonicalizer replaces the text canonicalizer.
func WithCanonicalizer(c document.Canonicalizer) EngineOption {
	return func(e *Engine) {
		e.canonicalizer = c
	}
}

// WithPropertyName changes the Info dictionary key used for the signature.
func WithPropertyName(name string) EngineOption {
	return func(e *Engine) {
		e.property = name
	}
}

// WithScheme selects the RSA padding. Signer and verifier must agree.
func WithScheme(s Scheme) EngineOption {
	return func(e *Engine) {
		e.scheme = s
	}
}

// WithRand replaces the randomness used for PSS salts.
func WithRand(r io.Reader) EngineOption {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine returns an Engine using text canonicalization, PKCS#1 v1.5 and
// the PAdESSignature property.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		canonicalizer: document.NewTextCanonicalizer(),
		verifier:      verification.NewVerifier(),
		property:      DefaultPropertyName,
		scheme:        SchemePKCS1v15,
		rand:          rand.Reader,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PropertyName returns the Info dictionary key used for signatures.
func (e *Engine) PropertyName() string {
	return e.property
}

// IsSigned reports whether doc already carries a signature entry.
func (e *Engine) IsSigned(doc *document.Document) (bool, error) {
	if doc == nil {
		return false, ErrDocumentRequired
	}
	_, ok, err := doc.Property(e.property)
	return ok, err
}

// Sign returns a signed copy of doc. doc itself is never modified.
// ErrAlreadySigned is returned if doc already has a signature entry.
func (e *Engine) Sign(key crypto.Signer, doc *document.Document) (*document.Document, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	signer, err := NewSigner(key)
	if err != nil {
		return nil, err
	}

	signed, err := e.IsSigned(doc)
	if err != nil {
		return nil, err
	}
	if signed {
		return nil, ErrAlreadySigned
	}

	canonical, err := e.canonicalizer.Extract(doc)
	if err != nil {
		return nil, err
	}

	opts := NewSignerOpts(crypto.SHA256).WithBlobData(canonical)
	if e.scheme == SchemePSS {
		opts.WithPSSOptions(&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256})
	}
	sig, err := signer.Sign(e.rand, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	out, err := doc.WithProperty(e.property, base64.StdEncoding.EncodeToString(sig))
	if err != nil {
		return nil, err
	}
	e.logger.Debug("document signed",
		"canonical_bytes", len(canonical),
		"signature_bytes", len(sig),
		"algorithm", signer.GetKeyAlgorithm().String())
	return out, nil
}

// Verify checks the signature embedded in doc against pub. It never
// returns an error or panics; every outcome is a Result.
func (e *Engine) Verify(pub crypto.PublicKey, doc *document.Document) (result *verification.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = verification.Failed(verification.ReasonUnreadableDocument, fmt.Errorf("%v", r))
		}
	}()

	if pub == nil {
		return verification.Failed(verification.ReasonUnreadableKey, nil)
	}
	if doc == nil {
		return verification.Failed(verification.ReasonUnreadableDocument, ErrDocumentRequired)
	}

	value, ok, err := doc.Property(e.property)
	if err != nil {
		return verification.Failed(verification.ReasonUnreadableDocument, err)
	}
	if !ok {
		return verification.Failed(verification.ReasonNotSigned, nil)
	}

	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return verification.Failed(verification.ReasonMalformedSignature, err)
	}
	if len(sig) == 0 {
		return verification.Failed(verification.ReasonMalformedSignature, nil)
	}

	canonical, err := e.canonicalizer.Extract(doc)
	if err != nil {
		return verification.Failed(verification.ReasonUnreadableDocument, err)
	}

	var opts *verification.VerifyOpts
	if e.scheme == SchemePSS {
		opts = &verification.VerifyOpts{
			PSSOptions: &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA256},
		}
		if _, isRSA := pub.(*rsa.PublicKey); isRSA {
			opts.KeyAttributes = &verification.KeyAttributes{KeyAlgorithm: x509.RSA, Hash: crypto.SHA256}
		}
	}

	message := canonical
	if _, isEd := pub.(ed25519.PublicKey); !isEd {
		sum := sha256.Sum256(canonical)
		message = sum[:]
	}

	if err := e.verifier.Verify(pub, crypto.SHA256, message, sig, opts); err != nil {
		if verification.IsKeyError(err) {
			return verification.Failed(verification.ReasonUnreadableKey, err)
		}
		e.logger.Debug("signature mismatch", "error", err.Error())
		return verification.Failed(verification.ReasonSignatureMismatch, nil)
	}
	return verification.Verified()
}

// SignedFileName returns the path of the signed copy of path: the same
// directory with prefix (SignedPrefix when empty) before the base name.
func SignedFileName(path, prefix string) string {
	if prefix == "" {
		prefix = SignedPrefix
	}
	return filepath.Join(filepath.Dir(path), prefix+filepath.Base(path))
}
