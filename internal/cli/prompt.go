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

package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var (
	ErrNoInput         = errors.New("no input")
	ErrInputMismatch   = errors.New("entries did not match")
	ErrTooManyAttempts = errors.New("too many failed PIN attempts")
)

// SecretReader reads PINs and passphrases.
type SecretReader interface {
	// ReadSecret prompts and reads one secret. When confirm is set the
	// reader may ask for it twice.
	ReadSecret(prompt string, confirm bool) ([]byte, error)
}

// terminalReader reads from a TTY without echo.
type terminalReader struct {
	fd     int
	prompt io.Writer
}

func (r *terminalReader) ReadSecret(prompt string, confirm bool) ([]byte, error) {
	fmt.Fprintf(r.prompt, "%s: ", prompt)
	secret, err := term.ReadPassword(r.fd)
	fmt.Fprintln(r.prompt)
	if err != nil {
		return nil, fmt.Errorf("ReadPassword: %w", err)
	}
	if len(secret) == 0 {
		return nil, ErrNoInput
	}
	if !confirm {
		return secret, nil
	}
	fmt.Fprintf(r.prompt, "Repeat %s: ", strings.ToLower(prompt))
	again, err := term.ReadPassword(r.fd)
	fmt.Fprintln(r.prompt)
	if err != nil {
		return nil, fmt.Errorf("ReadPassword: %w", err)
	}
	defer clear(again)
	if !bytes.Equal(secret, again) {
		clear(secret)
		return nil, ErrInputMismatch
	}
	return secret, nil
}

// lineReader reads one secret per line, for --pin-stdin and pipes.
// Confirmation is never requested.
type lineReader struct {
	scanner *bufio.Scanner
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{scanner: bufio.NewScanner(r)}
}

func (r *lineReader) ReadSecret(_ string, _ bool) ([]byte, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoInput
	}
	line := bytes.TrimRight(r.scanner.Bytes(), "\r")
	if len(line) == 0 {
		return nil, ErrNoInput
	}
	return bytes.Clone(line), nil
}

// newSecretReader picks the terminal when in is an interactive stdin,
// a line reader otherwise.
func newSecretReader(in io.Reader, prompt io.Writer, forceLines bool) SecretReader {
	if f, ok := in.(*os.File); ok && !forceLines && term.IsTerminal(int(f.Fd())) {
		return &terminalReader{fd: int(f.Fd()), prompt: prompt}
	}
	return newLineReader(in)
}
