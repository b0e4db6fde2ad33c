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

package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeremyhahn/go-pdfsign/pkg/storage"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "alice_private.key", PrivateKeyName("alice"))
	assert.Equal(t, "alice_public.pem", PublicKeyName("alice"))
}

func TestKeystore_SaveAndLoad(t *testing.T) {
	ks := New(storage.NewMemory(), storage.NewMemory())

	name, err := ks.SavePrivateKey("alice", []byte("blob"))
	require.NoError(t, err)
	assert.Equal(t, "alice_private.key", name)

	pub, err := ks.SavePublicKey("alice", []byte("pem"))
	require.NoError(t, err)
	assert.Equal(t, "alice_public.pem", pub)

	data, err := ks.LoadPrivateKey(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)

	data, err = ks.LoadPublicKey(pub)
	require.NoError(t, err)
	assert.Equal(t, []byte("pem"), data)
}

func TestKeystore_NoOverwrite(t *testing.T) {
	ks := New(storage.NewMemory(), storage.NewMemory())

	_, err := ks.SavePrivateKey("alice", []byte("first"))
	require.NoError(t, err)
	_, err = ks.SavePrivateKey("alice", []byte("second"))
	assert.ErrorIs(t, err, ErrKeyExists)

	data, err := ks.LoadPrivateKey("alice_private.key")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
}

func TestKeystore_Errors(t *testing.T) {
	ks := New(storage.NewMemory(), nil)

	_, err := ks.SavePrivateKey("../alice", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidBasename)

	_, err = ks.LoadPrivateKey("missing_private.key")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = ks.LoadPrivateKey("../etc/passwd")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = ks.SavePublicKey("alice", []byte("x"))
	assert.ErrorIs(t, err, ErrNoBackend)
	_, err = ks.ListPublicKeys()
	assert.ErrorIs(t, err, ErrNoBackend)

	assert.ErrorIs(t, ks.RemovePrivateKey("missing_private.key"), ErrKeyNotFound)
}

func TestKeystore_List(t *testing.T) {
	removable := storage.NewMemory()
	local := storage.NewMemory()
	ks := New(removable, local)

	require.NoError(t, removable.Put("zed_private.key", []byte("z"), nil))
	require.NoError(t, removable.Put("alice_private.KEY", []byte("a"), nil))
	require.NoError(t, removable.Put("notes.txt", []byte("n"), nil))
	require.NoError(t, local.Put("bob_public.pem", []byte("b"), nil))
	require.NoError(t, local.Put("nested/carol_public.pem", []byte("c"), nil))

	priv, err := ks.ListPrivateKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice_private.KEY", "zed_private.key"}, priv)

	pub, err := ks.ListPublicKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob_public.pem"}, pub)
}

func TestKeystore_FileBackendPermissions(t *testing.T) {
	usb := t.TempDir()
	keys := filepath.Join(t.TempDir(), "keys")

	removable, err := file.Open(usb)
	require.NoError(t, err)
	local, err := file.New(keys)
	require.NoError(t, err)

	ks := New(removable, local)
	_, err = ks.SavePrivateKey("alice", []byte("blob"))
	require.NoError(t, err)
	_, err = ks.SavePublicKey("alice", []byte("pem"))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(usb, "alice_private.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(keys, "alice_public.pem"))
	require.NoError(t, err)

	require.NoError(t, ks.RemovePrivateKey("alice_private.key"))
	_, err = os.Stat(filepath.Join(usb, "alice_private.key"))
	assert.True(t, os.IsNotExist(err))
}
