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
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-pdfsign/internal/testutil"
	"github.com/jeremyhahn/go-pdfsign/pkg/encoding"
	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/keystore"
	"github.com/jeremyhahn/go-pdfsign/pkg/signing"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	root    string
	usbDir  string
	keysDir string
	logDir  string
	docsDir string
	config  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	e := &env{
		root:    root,
		usbDir:  filepath.Join(root, "usb"),
		keysDir: filepath.Join(root, "keys"),
		logDir:  filepath.Join(root, "logs"),
		docsDir: filepath.Join(root, "docs"),
		config:  filepath.Join(root, "pdfsign.yaml"),
	}
	require.NoError(t, os.MkdirAll(e.usbDir, 0o755))
	require.NoError(t, os.MkdirAll(e.docsDir, 0o755))
	cfg := `
keys:
  key_size: 2048
guard:
  pin_attempts: 3
  pin_retry_delay: 10ms
`
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0o600))
	return e
}

// run executes the CLI with stdin and returns stdout, stderr and the error.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{
		"--config", e.config,
		"--keys-dir", e.keysDir,
		"--log-dir", e.logDir,
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (e *env) keygen(t *testing.T, name, pin string) {
	t.Helper()
	_, stderr, err := e.run(t, pin+"\n", "keygen", name, "--usb", e.usbDir, "--pin-stdin")
	require.NoError(t, err, stderr)
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, _, err := e.run(t, "", "-o", "json", "version")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
	assert.NotEmpty(t, v["go_version"])

	// version needs no configuration and writes no log file
	_, err = os.Stat(e.logDir)
	assert.True(t, os.IsNotExist(err))
}

func TestKeygenSignVerify(t *testing.T) {
	e := newEnv(t)
	doc := testutil.WritePDF(t, e.docsDir, "contract.pdf", "Hello", "World")

	out, _, err := e.run(t, "1234\n", "-o", "json", "keygen", "alice", "--usb", e.usbDir, "--pin-stdin")
	require.NoError(t, err)
	var id map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &id))
	assert.Equal(t, "alice", id["basename"])
	assert.EqualValues(t, 2048, id["key_size"])

	privPath := filepath.Join(e.usbDir, keystore.PrivateKeyName("alice"))
	pubPath := filepath.Join(e.keysDir, keystore.PublicKeyName("alice"))
	info, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	require.FileExists(t, pubPath)

	before, err := os.ReadFile(doc)
	require.NoError(t, err)

	out, _, err = e.run(t, "1234\n", "sign", doc, "--key", privPath, "--pin-stdin")
	require.NoError(t, err)
	signedPath := signing.SignedFileName(doc, "")

	logData, err := os.ReadFile(filepath.Join(e.logDir, "app_logs.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "document signed")
	assert.Contains(t, string(logData), "op_id=")
	assert.Contains(t, out, signedPath)
	require.FileExists(t, signedPath)

	after, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.Equal(t, before, after, "input must not be modified")

	out, _, err = e.run(t, "", "verify", signedPath, "--pub", pubPath)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
	assert.Contains(t, out, verification.ReasonVerified)

	out, _, err = e.run(t, "", "verify", doc, "--pub", pubPath)
	assert.ErrorIs(t, err, ErrDocumentInvalid)
	assert.Contains(t, out, verification.ReasonNotSigned)

	_, _, err = e.run(t, "1234\n", "sign", signedPath, "--key", privPath, "--pin-stdin")
	assert.ErrorIs(t, err, signing.ErrAlreadySigned)

	// Each run truncates the log, so only the refused re-sign is left.
	logData, err = os.ReadFile(filepath.Join(e.logDir, "app_logs.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "already signed")
	assert.NotContains(t, string(logData), "document signed")
}

func TestSign_ExistingSignedCopy(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	privPath := filepath.Join(e.usbDir, keystore.PrivateKeyName("alice"))
	pubPath := filepath.Join(e.keysDir, keystore.PublicKeyName("alice"))

	doc := testutil.WritePDF(t, e.docsDir, "report.pdf", "Hello")
	signedPath := signing.SignedFileName(doc, "")
	require.NoError(t, os.WriteFile(signedPath, []byte("keep me"), 0o644))

	// Refused before any PIN is read.
	_, _, err := e.run(t, "", "sign", doc, "--key", privPath, "--pin-stdin")
	assert.ErrorIs(t, err, ErrOutputFileExists)
	data, err := os.ReadFile(signedPath)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))

	_, _, err = e.run(t, "1234\n", "sign", doc, "--key", privPath, "--pin-stdin", "--force")
	require.NoError(t, err)
	out, _, err := e.run(t, "", "verify", signedPath, "--pub", pubPath)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
}

func TestKeygen_Rejections(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")

	_, _, err := e.run(t, "1234\n", "keygen", "alice", "--usb", e.usbDir, "--pin-stdin")
	assert.ErrorIs(t, err, keystore.ErrKeyExists)

	_, _, err = e.run(t, "12ab\n", "keygen", "bob", "--usb", e.usbDir, "--pin-stdin")
	assert.ErrorIs(t, err, keyguard.ErrInvalidPIN)

	_, _, err = e.run(t, "1234567\n", "keygen", "bob", "--usb", e.usbDir, "--pin-stdin")
	assert.ErrorIs(t, err, keyguard.ErrInvalidPIN)

	_, _, err = e.run(t, "\n", "keygen", "bob", "--usb", e.usbDir, "--pin-stdin")
	assert.ErrorIs(t, err, ErrNoInput)

	_, _, err = e.run(t, "1234\n", "keygen", "../bob", "--usb", e.usbDir, "--pin-stdin")
	assert.ErrorIs(t, err, keystore.ErrInvalidBasename)

	assert.NoFileExists(t, filepath.Join(e.usbDir, keystore.PrivateKeyName("bob")))
}

func TestSign_PINAttempts(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	privPath := filepath.Join(e.usbDir, keystore.PrivateKeyName("alice"))

	t.Run("succeeds on third attempt", func(t *testing.T) {
		doc := testutil.WritePDF(t, e.docsDir, "a.pdf", "Hello")
		_, stderr, err := e.run(t, "0000\nabc\n1234\n", "sign", doc, "--key", privPath, "--pin-stdin")
		require.NoError(t, err)
		assert.Contains(t, stderr, "Wrong PIN, 2 attempt(s) left")
		assert.Contains(t, stderr, "Wrong PIN, 1 attempt(s) left")
		assert.FileExists(t, signing.SignedFileName(doc, ""))
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		doc := testutil.WritePDF(t, e.docsDir, "b.pdf", "Hello")
		_, _, err := e.run(t, "0000\n1111\n2222\n1234\n", "sign", doc, "--key", privPath, "--pin-stdin")
		assert.ErrorIs(t, err, ErrTooManyAttempts)
		assert.NoFileExists(t, signing.SignedFileName(doc, ""))
	})

	t.Run("stops when input runs out", func(t *testing.T) {
		doc := testutil.WritePDF(t, e.docsDir, "c.pdf", "Hello")
		_, _, err := e.run(t, "0000\n", "sign", doc, "--key", privPath, "--pin-stdin")
		assert.ErrorIs(t, err, ErrNoInput)
	})
}

func TestDiscoveryDrivenCommands(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	doc := testutil.WritePDF(t, e.docsDir, "contract.pdf", "Hello", "World")

	out, _, err := e.run(t, "", "--usb-path", e.usbDir, "-o", "json", "keys")
	require.NoError(t, err)
	var result struct {
		RemovableRoots []string `json:"removable_roots"`
		PrivateKeys    []string `json:"private_keys"`
		PublicKeys     []string `json:"public_keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{e.usbDir}, result.RemovableRoots)
	require.Len(t, result.PrivateKeys, 1)
	require.Len(t, result.PublicKeys, 1)

	// --key and --pub can be omitted when exactly one key is found
	_, _, err = e.run(t, "1234\n", "--usb-path", e.usbDir, "sign", doc, "--pin-stdin")
	require.NoError(t, err)
	_, _, err = e.run(t, "", "verify", signing.SignedFileName(doc, ""))
	require.NoError(t, err)

	e.keygen(t, "bob", "5678")
	_, _, err = e.run(t, "", "verify", signing.SignedFileName(doc, ""))
	assert.ErrorIs(t, err, ErrAmbiguousKey)
}

func TestVerify_TamperedAndWrongKey(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	e.keygen(t, "bob", "5678")
	doc := testutil.WritePDF(t, e.docsDir, "contract.pdf", "Hello", "World")
	_, _, err := e.run(t, "1234\n", "sign", doc,
		"--key", filepath.Join(e.usbDir, keystore.PrivateKeyName("alice")), "--pin-stdin")
	require.NoError(t, err)
	signedPath := signing.SignedFileName(doc, "")

	out, _, err := e.run(t, "", "-o", "json", "verify", signedPath,
		"--pub", filepath.Join(e.keysDir, keystore.PublicKeyName("bob")))
	assert.ErrorIs(t, err, ErrDocumentInvalid)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, false, res["valid"])
	assert.Equal(t, verification.ReasonSignatureMismatch, res["reason"])
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	privPath := filepath.Join(e.usbDir, keystore.PrivateKeyName("alice"))
	outPath := filepath.Join(e.root, "alice_pkcs8.pem")

	_, _, err := e.run(t, "1234\ns3cret\n", "export", privPath, "--out", outPath, "--pin-stdin")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ENCRYPTED PRIVATE KEY")
	key, err := encoding.DecodePrivateKeyPEM(data, []byte("s3cret"))
	require.NoError(t, err)
	assert.NotNil(t, key)

	_, _, err = e.run(t, "1234\ns3cret\n", "export", privPath, "--out", outPath, "--pin-stdin")
	assert.ErrorIs(t, err, ErrOutputFileExists)

	_, _, err = e.run(t, "9999\ns3cret\n", "export", privPath, "--out", outPath, "--force", "--pin-stdin")
	assert.ErrorIs(t, err, keyguard.ErrDecryptionFailed)

	_, _, err = e.run(t, "1234\n", "export", privPath, "--out", outPath, "--force", "--pin-stdin")
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestMetricsTextfile(t *testing.T) {
	e := newEnv(t)
	textfile := filepath.Join(e.root, "pdfsign.prom")

	_, _, err := e.run(t, "", "--metrics-textfile", textfile, "keys")
	require.NoError(t, err)
	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pdfsign_keys_total")
}

func TestEnvironmentBinding(t *testing.T) {
	e := newEnv(t)
	e.keygen(t, "alice", "1234")
	t.Setenv("PDFSIGN_USB_PATH", e.usbDir)

	out, _, err := e.run(t, "", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, keystore.PrivateKeyName("alice"))
}

func TestInvalidConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(e.config, []byte("keys:\n  key_size: 512\n"), 0o600))

	_, _, err := e.run(t, "", "keys")
	assert.Error(t, err)
}
