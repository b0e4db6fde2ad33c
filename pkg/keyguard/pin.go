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

import "fmt"

const (
	// DefaultPINMinLength is the shortest accepted PIN.
	DefaultPINMinLength = 1

	// DefaultPINMaxLength is the longest accepted PIN.
	DefaultPINMaxLength = 6
)

// PINPolicy constrains the PINs accepted when creating or unlocking a key.
type PINPolicy struct {
	MinLength  int
	MaxLength  int
	DigitsOnly bool
}

// DefaultPINPolicy returns the 1 to 6 digit policy.
func DefaultPINPolicy() PINPolicy {
	return PINPolicy{
		MinLength:  DefaultPINMinLength,
		MaxLength:  DefaultPINMaxLength,
		DigitsOnly: true,
	}
}

// Validate checks pin against the policy. The returned error wraps
// ErrInvalidPIN and never contains the PIN itself.
func (p PINPolicy) Validate(pin string) error {
	n := len([]rune(pin))
	if n == 0 {
		return fmt.Errorf("%w: PIN cannot be empty", ErrInvalidPIN)
	}
	if p.MinLength > 0 && n < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrInvalidPIN, p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidPIN, p.MaxLength)
	}
	if p.DigitsOnly {
		for _, r := range pin {
			if r < '0' || r > '9' {
				return fmt.Errorf("%w: must contain digits only", ErrInvalidPIN)
			}
		}
	}
	return nil
}
