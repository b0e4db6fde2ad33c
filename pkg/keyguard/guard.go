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

// Package keyguard seals private key bytes under a PIN with AES-256-GCM.
//
// By default the AES key is SHA-256(pin) with no salt and the blob is the
// headerless nonce‖tag‖ciphertext layout written by earlier releases.
// Callers may opt in to Argon2id, in which case the blob carries a magic
// prefix with the KDF parameters and a random salt. Decrypt detects the
// format from the blob itself, so one Guard reads both.
//
// Every failure to open a blob is reported as ErrDecryptionFailed.
package keyguard

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
)

// Guard encrypts and decrypts private keys under a PIN. It holds only
// configuration; each call is independent.
type Guard struct {
	kdf    KDF
	params Argon2Params
	rand   io.Reader
	logger *logging.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithKDF selects the KDF used by Encrypt.
func WithKDF(kdf KDF) Option {
	return func(g *Guard) {
		g.kdf = kdf
	}
}

// WithArgon2Params overrides the Argon2id cost used by Encrypt.
func WithArgon2Params(p Argon2Params) Option {
	return func(g *Guard) {
		g.params = p
	}
}

// WithRand replaces the nonce and salt source. Tests only.
func WithRand(r io.Reader) Option {
	return func(g *Guard) {
		g.rand = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// New returns a Guard. Without options it uses the SHA-256 KDF.
func New(opts ...Option) *Guard {
	g := &Guard{
		kdf:    KDFSHA256,
		params: DefaultArgon2Params(),
		rand:   rand.Reader,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// KDF returns the KDF used for new blobs.
func (g *Guard) KDF() KDF {
	return g.kdf
}

// Encrypt seals plaintext under pin with a fresh random nonce.
func (g *Guard) Encrypt(plaintext []byte, pin string) (*Blob, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	blob := &Blob{KDF: g.kdf}
	var key []byte
	switch g.kdf {
	case KDFSHA256:
		key = DeriveKey(pin)
	case KDFArgon2id:
		if !g.params.valid() {
			return nil, fmt.Errorf("%w: invalid argon2id parameters", ErrUnsupportedKDF)
		}
		blob.Params = g.params
		blob.Salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(g.rand, blob.Salt); err != nil {
			return nil, fmt.Errorf("keyguard: failed to generate salt: %w", err)
		}
		key = deriveArgon2Key(pin, blob.Salt, g.params)
	default:
		return nil, ErrUnsupportedKDF
	}
	defer zeroBytes(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(g.rand, blob.Nonce[:]); err != nil {
		return nil, fmt.Errorf("keyguard: failed to generate nonce: %w", err)
	}

	// Seal returns ciphertext‖tag; the file layout wants the tag first.
	sealed := aead.Seal(nil, blob.Nonce[:], plaintext, nil)
	ctLen := len(sealed) - TagSize
	copy(blob.Tag[:], sealed[ctLen:])
	blob.Ciphertext = sealed[:ctLen]

	g.logger.Debug("private key encrypted", "kdf", g.kdf.String(), "bytes", len(plaintext))
	return blob, nil
}

// Decrypt opens blob with pin. The KDF recorded in the blob wins over the
// Guard's own setting.
func (g *Guard) Decrypt(blob *Blob, pin string) ([]byte, error) {
	if blob == nil {
		return nil, ErrDecryptionFailed
	}

	var key []byte
	switch blob.KDF {
	case KDFSHA256:
		key = DeriveKey(pin)
	case KDFArgon2id:
		if !blob.Params.valid() || len(blob.Salt) == 0 {
			return nil, ErrDecryptionFailed
		}
		key = deriveArgon2Key(pin, blob.Salt, blob.Params)
	default:
		return nil, ErrDecryptionFailed
	}
	defer zeroBytes(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(blob.Ciphertext)+TagSize)
	sealed = append(sealed, blob.Ciphertext...)
	sealed = append(sealed, blob.Tag[:]...)

	plaintext, err := aead.Open(nil, blob.Nonce[:], sealed, nil)
	if err != nil {
		g.logger.Debug("private key decryption failed", "kdf", blob.KDF.String())
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// DecryptBytes parses the file form of a blob and opens it.
func (g *Guard) DecryptBytes(data []byte, pin string) ([]byte, error) {
	blob, err := ParseBlob(data)
	if err != nil {
		return nil, err
	}
	return g.Decrypt(blob, pin)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keyguard: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keyguard: failed to create GCM: %w", err)
	}
	return aead, nil
}
