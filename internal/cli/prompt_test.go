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
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLineReader(t *testing.T) {
	r := newLineReader(strings.NewReader("1234\r\n5678\n\n"))

	got, err := r.ReadSecret("PIN", false)
	if err != nil || string(got) != "1234" {
		t.Fatalf("expected 1234, got %q (%v)", got, err)
	}
	got, err = r.ReadSecret("PIN", true)
	if err != nil || string(got) != "5678" {
		t.Fatalf("expected 5678, got %q (%v)", got, err)
	}
	if _, err := r.ReadSecret("PIN", false); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput for an empty line, got %v", err)
	}
	if _, err := r.ReadSecret("PIN", false); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput at EOF, got %v", err)
	}
}

func TestNewSecretReader(t *testing.T) {
	if _, ok := newSecretReader(strings.NewReader(""), &bytes.Buffer{}, false).(*lineReader); !ok {
		t.Error("expected a line reader for a non-file input")
	}

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, ok := newSecretReader(f, &bytes.Buffer{}, false).(*lineReader); !ok {
		t.Error("expected a line reader for a regular file")
	}
}
