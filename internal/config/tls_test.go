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

package config

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-pdfsign/internal/testutil"
)

func TestLoadTLSConfig_Disabled(t *testing.T) {
	cfg := &TLSConfig{Enabled: false}
	tlsConfig, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("LoadTLSConfig() error = %v, want nil", err)
	}
	if tlsConfig != nil {
		t.Errorf("LoadTLSConfig() = %v, want nil for disabled TLS", tlsConfig)
	}
}

func TestLoadTLSConfig_ValidConfig(t *testing.T) {
	files := testutil.WriteTLSFiles(t, t.TempDir(), false)

	cfg := &TLSConfig{
		Enabled:    true,
		CertFile:   files.CertFile,
		KeyFile:    files.KeyFile,
		CAFile:     files.CAFile,
		ClientAuth: "require_and_verify",
		MinVersion: "TLS1.3",
	}
	tlsConfig, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("LoadTLSConfig() error = %v", err)
	}
	if len(tlsConfig.Certificates) != 1 {
		t.Errorf("expected 1 certificate, got %d", len(tlsConfig.Certificates))
	}
	if tlsConfig.MinVersion != tls.VersionTLS13 {
		t.Errorf("MinVersion = %x, want TLS 1.3", tlsConfig.MinVersion)
	}
	if tlsConfig.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Errorf("ClientAuth = %v", tlsConfig.ClientAuth)
	}
	if tlsConfig.ClientCAs == nil {
		t.Error("expected client CA pool")
	}
}

func TestLoadTLSConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	files := testutil.WriteTLSFiles(t, dir, false)

	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing cert", TLSConfig{Enabled: true, CertFile: filepath.Join(dir, "none.pem"), KeyFile: files.KeyFile}},
		{"key mismatch", TLSConfig{Enabled: true, CertFile: files.CertFile, KeyFile: files.CAFile}},
		{"bad version", TLSConfig{Enabled: true, CertFile: files.CertFile, KeyFile: files.KeyFile, MinVersion: "SSL3"}},
		{"bad client auth", TLSConfig{Enabled: true, CertFile: files.CertFile, KeyFile: files.KeyFile, ClientAuth: "maybe"}},
		{"missing CA", TLSConfig{Enabled: true, CertFile: files.CertFile, KeyFile: files.KeyFile, ClientAuth: "verify", CAFile: filepath.Join(dir, "none.pem")}},
		{"CA not PEM", TLSConfig{Enabled: true, CertFile: files.CertFile, KeyFile: files.KeyFile, ClientAuth: "verify", CAFile: files.KeyFile}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.LoadTLSConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseTLSVersion(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
	}{
		{"", tls.VersionTLS12},
		{"TLS1.2", tls.VersionTLS12},
		{"tls1.3", tls.VersionTLS13},
	}
	for _, tt := range tests {
		got, err := parseTLSVersion(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseTLSVersion(%q) = %x, %v", tt.in, got, err)
		}
	}
}
