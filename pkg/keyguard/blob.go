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

import (
	"bytes"
	"encoding/binary"
)

const (
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16

	// MinBlobSize is the smallest well-formed legacy blob.
	MinBlobSize = NonceSize + TagSize

	// SaltSize is the Argon2id salt length in hardened blobs.
	SaltSize = 16

	hardenedMagic   = "PDFSIGK2"
	hardenedVersion = 1

	// Upper bounds on parameters read from a file.
	maxArgon2Time     = 16
	maxArgon2MemoryKB = 1 << 20

	// magic ‖ version ‖ time ‖ memory ‖ threads ‖ salt length
	hardenedHeaderSize = len(hardenedMagic) + 1 + 4 + 4 + 1 + 1
)

// Blob is an encrypted private key.
//
// The legacy file form is nonce(12) ‖ tag(16) ‖ ciphertext with no header.
// Hardened blobs (KDF == KDFArgon2id) are prefixed with
// "PDFSIGK2" ‖ version ‖ time ‖ memory ‖ threads ‖ saltLen ‖ salt.
type Blob struct {
	Nonce      [NonceSize]byte
	Tag        [TagSize]byte
	Ciphertext []byte

	KDF    KDF
	Salt   []byte
	Params Argon2Params
}

// Bytes serializes the blob to its file form.
func (b *Blob) Bytes() []byte {
	var buf bytes.Buffer
	if b.KDF == KDFArgon2id {
		buf.Grow(hardenedHeaderSize + len(b.Salt) + MinBlobSize + len(b.Ciphertext))
		buf.WriteString(hardenedMagic)
		buf.WriteByte(hardenedVersion)
		_ = binary.Write(&buf, binary.BigEndian, b.Params.Time)
		_ = binary.Write(&buf, binary.BigEndian, b.Params.MemoryKB)
		buf.WriteByte(b.Params.Threads)
		buf.WriteByte(byte(len(b.Salt)))
		buf.Write(b.Salt)
	} else {
		buf.Grow(MinBlobSize + len(b.Ciphertext))
	}
	buf.Write(b.Nonce[:])
	buf.Write(b.Tag[:])
	buf.Write(b.Ciphertext)
	return buf.Bytes()
}

// IsHardened reports whether data starts with the hardened blob magic.
func IsHardened(data []byte) bool {
	return bytes.HasPrefix(data, []byte(hardenedMagic))
}

// ParseBlob parses the file form of a blob. Any malformed input, including
// input shorter than nonce plus tag, returns ErrDecryptionFailed so that a
// truncated file looks the same as a corrupted one.
func ParseBlob(data []byte) (*Blob, error) {
	b := &Blob{KDF: KDFSHA256}

	if IsHardened(data) {
		if len(data) < hardenedHeaderSize {
			return nil, ErrDecryptionFailed
		}
		p := data[len(hardenedMagic):]
		if p[0] != hardenedVersion {
			return nil, ErrDecryptionFailed
		}
		b.KDF = KDFArgon2id
		b.Params.Time = binary.BigEndian.Uint32(p[1:5])
		b.Params.MemoryKB = binary.BigEndian.Uint32(p[5:9])
		b.Params.Threads = p[9]
		saltLen := int(p[10])
		data = data[hardenedHeaderSize:]
		if saltLen == 0 || len(data) < saltLen {
			return nil, ErrDecryptionFailed
		}
		if !b.Params.valid() {
			return nil, ErrDecryptionFailed
		}
		b.Salt = append([]byte(nil), data[:saltLen]...)
		data = data[saltLen:]
	}

	if len(data) < MinBlobSize {
		return nil, ErrDecryptionFailed
	}
	copy(b.Nonce[:], data[:NonceSize])
	copy(b.Tag[:], data[NonceSize:MinBlobSize])
	b.Ciphertext = append([]byte(nil), data[MinBlobSize:]...)
	return b, nil
}

func (p Argon2Params) valid() bool {
	return p.Time > 0 && p.Time <= maxArgon2Time &&
		p.MemoryKB > 0 && p.MemoryKB <= maxArgon2MemoryKB &&
		p.Threads > 0
}
