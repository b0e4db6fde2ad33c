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

package keyguard

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length produced by every KDF.
const KeySize = 32

// KDF selects how a PIN becomes an AES key.
type KDF int

const (
	// KDFSHA256 is a single unsalted SHA-256 pass over the PIN bytes. It
	// reads and writes the headerless nonce‖tag‖ciphertext format.
	KDFSHA256 KDF = iota

	// KDFArgon2id uses Argon2id with a random per-blob salt. Blobs carry
	// a magic prefix and the parameters needed to re-derive the key.
	KDFArgon2id
)

// String returns the configuration name of the KDF.
func (k KDF) String() string {
	switch k {
	case KDFSHA256:
		return "sha256"
	case KDFArgon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("KDF(%d)", int(k))
	}
}

// ParseKDF maps a configuration name to a KDF.
func ParseKDF(name string) (KDF, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha256":
		return KDFSHA256, nil
	case "argon2id", "argon2":
		return KDFArgon2id, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKDF, name)
	}
}

// Argon2Params are the Argon2id cost parameters stored in a hardened blob.
type Argon2Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultArgon2Params returns interactive-strength parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:     2,
		MemoryKB: 64 * 1024,
		Threads:  1,
	}
}

// DeriveKey hashes the raw PIN bytes with SHA-256. Identical PINs always
// produce identical keys.
func DeriveKey(pin string) []byte {
	sum := sha256.Sum256([]byte(pin))
	return sum[:]
}

func deriveArgon2Key(pin string, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey([]byte(pin), salt, p.Time, p.MemoryKB, p.Threads, KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
