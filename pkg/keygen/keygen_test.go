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

package keygen

import (
	"testing"

	"github.com/jeremyhahn/go-pdfsign/pkg/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_KeySize(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		want    int
		wantErr bool
	}{
		{"default", nil, RSAKeySize, false},
		{"2048", []Option{WithKeySize(2048)}, 2048, false},
		{"3072", []Option{WithKeySize(3072)}, 3072, false},
		{"1024 rejected", []Option{WithKeySize(1024)}, 0, true},
		{"zero rejected", []Option{WithKeySize(0)}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.opts...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKeySize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.KeySize())
		})
	}
}

func TestGenerate(t *testing.T) {
	g, err := New(WithKeySize(2048))
	require.NoError(t, err)

	kp, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, 2048, kp.PrivateKey.N.BitLen())
	assert.Same(t, &kp.PrivateKey.PublicKey, kp.PublicKey)

	other, err := g.Generate()
	require.NoError(t, err)
	assert.False(t, kp.PrivateKey.Equal(other.PrivateKey))
}

func TestGenerate_ProductionSize(t *testing.T) {
	if testing.Short() {
		t.Skip("4096-bit generation is slow")
	}
	g, err := New()
	require.NoError(t, err)

	kp, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, RSAKeySize, kp.PrivateKey.N.BitLen())
}

func TestKeyPair_PEM(t *testing.T) {
	g, err := New(WithKeySize(2048))
	require.NoError(t, err)
	kp, err := g.Generate()
	require.NoError(t, err)

	privPEM, err := kp.PrivateKeyPEM()
	require.NoError(t, err)
	priv, err := encoding.DecodeRSAPrivateKeyPEM(privPEM, nil)
	require.NoError(t, err)
	assert.True(t, kp.PrivateKey.Equal(priv))

	pubPEM, err := kp.PublicKeyPEM()
	require.NoError(t, err)
	pub, err := encoding.DecodePublicKeyPEM(pubPEM)
	require.NoError(t, err)
	assert.True(t, kp.PublicKey.Equal(pub))
}
