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

package signing

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-pdfsign/internal/testutil"
	"github.com/jeremyhahn/go-pdfsign/pkg/document"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helloWorld(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.FromBytes(testutil.BuildPDF("Hello", "World"))
	require.NoError(t, err)
	return doc
}

func TestEngine_SignVerify(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	doc := helloWorld(t)
	signed, err := engine.Sign(key, doc)
	require.NoError(t, err)

	result := engine.Verify(&key.PublicKey, signed)
	assert.True(t, result.Valid)
	assert.Equal(t, "Signature verified successfully", result.Reason)

	ok, err := engine.IsSigned(signed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.IsSigned(doc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_SignDocumentWithoutText(t *testing.T) {
	key := testutil.RSAKey(t, 0)

	for _, scheme := range []Scheme{SchemePKCS1v15, SchemePSS} {
		t.Run(string(scheme), func(t *testing.T) {
			engine := NewEngine(WithScheme(scheme))
			blank, err := document.FromBytes(testutil.BuildPDF("", ""))
			require.NoError(t, err)

			signed, err := engine.Sign(key, blank)
			require.NoError(t, err)
			assert.True(t, engine.Verify(&key.PublicKey, signed).Valid)

			// Adding text to a blank document breaks the signature.
			sig, _, err := signed.Property(DefaultPropertyName)
			require.NoError(t, err)
			filled, err := document.FromBytes(testutil.BuildPDF("Hello", ""))
			require.NoError(t, err)
			filled, err = filled.WithProperty(DefaultPropertyName, sig)
			require.NoError(t, err)
			assert.False(t, engine.Verify(&key.PublicKey, filled).Valid)
		})
	}
}

func TestEngine_SignDoesNotMutateInput(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	doc := helloWorld(t)
	before := doc.Bytes()

	signed, err := NewEngine().Sign(key, doc)
	require.NoError(t, err)
	assert.Equal(t, before, doc.Bytes())
	assert.NotEqual(t, before, signed.Bytes())
}

func TestEngine_PKCS1v15IsDeterministic(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	a, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)
	b, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)

	sigA, _, err := a.Property(DefaultPropertyName)
	require.NoError(t, err)
	sigB, _, err := b.Property(DefaultPropertyName)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
}

func TestEngine_AlreadySigned(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	signed, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)
	before := signed.Bytes()

	again, err := engine.Sign(key, signed)
	assert.ErrorIs(t, err, ErrAlreadySigned)
	assert.Nil(t, again)
	assert.Equal(t, before, signed.Bytes())

	// A different key is refused too.
	_, err = engine.Sign(testutil.RSAKey(t, 1), signed)
	assert.ErrorIs(t, err, ErrAlreadySigned)
}

func TestEngine_WrongPublicKey(t *testing.T) {
	engine := NewEngine()
	signed, err := engine.Sign(testutil.RSAKey(t, 0), helloWorld(t))
	require.NoError(t, err)

	result := engine.Verify(&testutil.RSAKey(t, 1).PublicKey, signed)
	assert.False(t, result.Valid)
	assert.Equal(t, verification.ReasonSignatureMismatch, result.Reason)
}

func TestEngine_TamperedContent(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	signed, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)
	sig, ok, err := signed.Property(DefaultPropertyName)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("one character changed on page 1", func(t *testing.T) {
		tampered, err := document.FromBytes(testutil.BuildPDF("Jello", "World"))
		require.NoError(t, err)
		tampered, err = tampered.WithProperty(DefaultPropertyName, sig)
		require.NoError(t, err)

		result := engine.Verify(&key.PublicKey, tampered)
		assert.False(t, result.Valid)
		assert.Equal(t, verification.ReasonSignatureMismatch, result.Reason)
	})

	t.Run("page dropped", func(t *testing.T) {
		tampered, err := document.FromBytes(testutil.BuildPDF("Hello"))
		require.NoError(t, err)
		tampered, err = tampered.WithProperty(DefaultPropertyName, sig)
		require.NoError(t, err)

		assert.False(t, engine.Verify(&key.PublicKey, tampered).Valid)
	})

	t.Run("byte flipped in signed file", func(t *testing.T) {
		data := signed.Bytes()
		idx := bytes.Index(data, []byte("(Hello) Tj"))
		if idx < 0 {
			t.Skip("content stream was re-encoded by the writer")
		}
		data[idx+1] = 'J'
		tampered, err := document.FromBytes(data)
		require.NoError(t, err)

		result := engine.Verify(&key.PublicKey, tampered)
		assert.False(t, result.Valid)
	})
}

func TestEngine_LayoutOnlyChangeStillVerifies(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	signed, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)
	sig, _, err := signed.Property(DefaultPropertyName)
	require.NoError(t, err)

	// Same text, different page geometry: the canonical form ignores layout.
	data := testutil.BuildPDF("Hello", "World")
	data = bytes.Replace(data, []byte("72 720 Td"), []byte("90 700 Td"), -1)
	moved, err := document.FromBytes(data)
	require.NoError(t, err)
	moved, err = moved.WithProperty(DefaultPropertyName, sig)
	require.NoError(t, err)

	assert.True(t, engine.Verify(&key.PublicKey, moved).Valid)
}

func TestEngine_VerifyFailures(t *testing.T) {
	key := testutil.RSAKey(t, 0)
	engine := NewEngine()

	unsigned := helloWorld(t)
	malformed, err := unsigned.WithProperty(DefaultPropertyName, "not*base64!")
	require.NoError(t, err)
	garbage, err := document.FromBytes([]byte("%PDF-1.4\nnot a pdf"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		pub    any
		doc    *document.Document
		reason string
	}{
		{"not signed", &key.PublicKey, unsigned, verification.ReasonNotSigned},
		{"malformed base64", &key.PublicKey, malformed, verification.ReasonMalformedSignature},
		{"unreadable document", &key.PublicKey, garbage, verification.ReasonUnreadableDocument},
		{"nil document", &key.PublicKey, nil, verification.ReasonUnreadableDocument},
		{"nil key", nil, unsigned, verification.ReasonUnreadableKey},
		{"unsupported key", "not a key", malformed, verification.ReasonMalformedSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Verify(tt.pub, tt.doc)
			require.NotNil(t, result)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}

	t.Run("unsupported key on signed document", func(t *testing.T) {
		signed, err := engine.Sign(key, helloWorld(t))
		require.NoError(t, err)
		result := engine.Verify("not a key", signed)
		assert.False(t, result.Valid)
		assert.Equal(t, verification.ReasonUnreadableKey, result.Reason)
	})
}

func TestEngine_SignErrors(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Sign(nil, helloWorld(t))
	assert.ErrorIs(t, err, ErrSignerRequired)

	_, err = engine.Sign(testutil.RSAKey(t, 0), nil)
	assert.ErrorIs(t, err, ErrDocumentRequired)

	garbage, err := document.FromBytes([]byte("%PDF-1.4\nnot a pdf"))
	require.NoError(t, err)
	_, err = engine.Sign(testutil.RSAKey(t, 0), garbage)
	assert.ErrorIs(t, err, document.ErrUnreadableDocument)
}

type failingCanonicalizer struct{}

func (failingCanonicalizer) Extract(*document.Document) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestEngine_CustomCanonicalizerAndProperty(t *testing.T) {
	key := testutil.RSAKey(t, 0)

	engine := NewEngine(WithPropertyName("X-Sig"))
	signed, err := engine.Sign(key, helloWorld(t))
	require.NoError(t, err)
	assert.Equal(t, "X-Sig", engine.PropertyName())
	assert.True(t, engine.Verify(&key.PublicKey, signed).Valid)

	// The default engine looks for a different property.
	assert.Equal(t, verification.ReasonNotSigned, NewEngine().Verify(&key.PublicKey, signed).Reason)

	broken := NewEngine(WithCanonicalizer(failingCanonicalizer{}))
	_, err = broken.Sign(key, helloWorld(t))
	assert.Error(t, err)
	result := broken.Verify(&key.PublicKey, signed)
	assert.False(t, result.Valid)
}

func TestEngine_OtherAlgorithms(t *testing.T) {
	ec, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	rsaKey := testutil.RSAKey(t, 0)

	t.Run("rsa pss", func(t *testing.T) {
		engine := NewEngine(WithScheme(SchemePSS))
		signed, err := engine.Sign(rsaKey, helloWorld(t))
		require.NoError(t, err)
		assert.True(t, engine.Verify(&rsaKey.PublicKey, signed).Valid)
		assert.False(t, NewEngine().Verify(&rsaKey.PublicKey, signed).Valid)
	})

	t.Run("ecdsa", func(t *testing.T) {
		engine := NewEngine()
		signed, err := engine.Sign(ec, helloWorld(t))
		require.NoError(t, err)
		assert.True(t, engine.Verify(&ec.PublicKey, signed).Valid)
	})

	t.Run("ed25519", func(t *testing.T) {
		engine := NewEngine()
		signed, err := engine.Sign(edPriv, helloWorld(t))
		require.NoError(t, err)
		assert.True(t, engine.Verify(edPub, signed).Valid)
	})
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme("")
	require.NoError(t, err)
	assert.Equal(t, SchemePKCS1v15, s)

	s, err = ParseScheme("PSS")
	require.NoError(t, err)
	assert.Equal(t, SchemePSS, s)

	_, err = ParseScheme("dsa")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestSignedFileName(t *testing.T) {
	dir := filepath.Join("docs", "2025")
	assert.Equal(t, filepath.Join(dir, "SIGNED_contract.pdf"), SignedFileName(filepath.Join(dir, "contract.pdf"), ""))
	assert.Equal(t, "OK_a.pdf", SignedFileName("a.pdf", "OK_"))
}
