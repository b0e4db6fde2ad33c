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

// Package validation checks user-supplied names before they reach the
// file system: key basenames from the CLI and key file names from the
// verification server.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxBasenameLength leaves room for the "_private.key" suffix within
	// common 255-byte file name limits.
	MaxBasenameLength = 200

	// MaxFileNameLength is the longest accepted key file name.
	MaxFileNameLength = 255
)

var (
	ErrEmpty        = errors.New("validation: empty name")
	ErrTooLong      = errors.New("validation: name too long")
	ErrInvalidChars = errors.New("validation: invalid characters")
	ErrTraversal    = errors.New("validation: path traversal")
)

var (
	basenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
	fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
)

// ValidateBasename checks a key pair basename such as "alice". Only
// letters, digits, '_' and '-' are allowed.
func ValidateBasename(basename string) error {
	if err := checkCommon(basename, MaxBasenameLength); err != nil {
		return fmt.Errorf("basename: %w", err)
	}
	if !basenamePattern.MatchString(basename) {
		return fmt.Errorf("basename %q: %w (allowed: a-z, A-Z, 0-9, -, _)", SanitizeForLog(basename), ErrInvalidChars)
	}
	return nil
}

// ValidateFileName checks a single key file name such as
// "alice_public.pem". Separators and parent references are rejected.
func ValidateFileName(name string) error {
	if err := checkCommon(name, MaxFileNameLength); err != nil {
		return fmt.Errorf("file name: %w", err)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, "..") {
		return fmt.Errorf("file name %q: %w", SanitizeForLog(name), ErrTraversal)
	}
	if !fileNamePattern.MatchString(name) {
		return fmt.Errorf("file name %q: %w (allowed: a-z, A-Z, 0-9, -, _, .)", SanitizeForLog(name), ErrInvalidChars)
	}
	return nil
}

func checkCommon(s string, max int) error {
	if s == "" {
		return ErrEmpty
	}
	if len(s) > max {
		return fmt.Errorf("%w (max %d characters)", ErrTooLong, max)
	}
	if strings.ContainsAny(s, "/\\") {
		return ErrTraversal
	}
	for _, r := range s {
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: control character", ErrInvalidChars)
		}
	}
	return nil
}

// SanitizeForLog strips control characters and truncates s so that user
// input cannot forge log lines.
func SanitizeForLog(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	if len(s) > 256 {
		s = s[:256] + "...[truncated]"
	}
	return s
}
