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

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Output: &buf})

	log.Info("document signed", "file", "a.pdf")
	assert.Contains(t, buf.String(), "document signed")
	assert.Contains(t, buf.String(), "file=a.pdf")

	buf.Reset()
	log.Debug("hidden")
	assert.Empty(t, buf.String(), "debug records must be dropped at info level")
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Output: &buf, Format: "json", Level: "debug"})

	log.With("op_id", "abc").Debug("step", "n", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "step", rec["msg"])
	assert.Equal(t, "abc", rec["op_id"])
	assert.Equal(t, float64(1), rec["n"])
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log := New(&Config{Output: &buf})

	log.Error(errors.New("boom"), "file", "x.key")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestNewFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DefaultLogDir)

	f, err := NewFileOutput(dir, DefaultLogFile)
	require.NoError(t, err)
	_, err = f.WriteString("first run\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// A second open truncates the previous run's log.
	f, err = NewFileOutput(dir, DefaultLogFile)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(filepath.Join(dir, DefaultLogFile))
	require.NoError(t, err)
	assert.Empty(t, data)
}
