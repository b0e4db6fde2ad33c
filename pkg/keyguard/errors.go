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

import "errors"

var (
	// ErrDecryptionFailed is returned for a wrong PIN, a truncated blob or a
	// corrupted blob. The three cases are deliberately indistinguishable.
	ErrDecryptionFailed = errors.New("keyguard: decryption failed (wrong PIN or corrupted key file)")

	// ErrInvalidPIN is returned when a PIN violates the configured policy.
	ErrInvalidPIN = errors.New("keyguard: invalid PIN")

	// ErrEmptyPlaintext is returned when asked to encrypt nothing.
	ErrEmptyPlaintext = errors.New("keyguard: empty plaintext")

	// ErrUnsupportedKDF is returned for an unknown KDF selector.
	ErrUnsupportedKDF = errors.New("keyguard: unsupported KDF")
)
