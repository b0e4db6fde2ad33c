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

// Package encoding converts keys between in-memory form and the PEM/DER
// byte formats used on disk: PKCS#1 for the private key sealed inside a
// PIN blob, PKIX for public key files and encrypted PKCS#8 for exports.
package encoding

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypeRSAPrivateKey       = "RSA PRIVATE KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypeRSAPublicKey        = "RSA PUBLIC KEY"
)

// EncodePrivateKeyPEM encodes an RSA private key as an unencrypted PKCS#1
// "RSA PRIVATE KEY" PEM block. This is the plaintext sealed by keyguard.
func EncodePrivateKeyPEM(privateKey *rsa.PrivateKey) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}
	block := &pem.Block{
		Type:  PEMTypeRSAPrivateKey,
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	return pem.EncodeToMemory(block), nil
}

// EncodeEncryptedPKCS8PEM encodes a private key as an
// "ENCRYPTED PRIVATE KEY" PEM block protected by password.
//
// Example:
//
//	pemData, err := encoding.EncodeEncryptedPKCS8PEM(privateKey, []byte("passphrase"))
func EncodeEncryptedPKCS8PEM(privateKey crypto.PrivateKey, password []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, ErrInvalidPrivateKey
	}
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	der, err := EncodePKCS8(privateKey, password)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypeEncryptedPrivateKey,
		Bytes: der,
	}), nil
}

// DecodePrivateKeyPEM decodes a PEM private key. PKCS#1, PKCS#8 and
// encrypted PKCS#8 blocks are accepted; the password is only consulted
// for the encrypted form.
//
// Example:
//
//	key, err := encoding.DecodePrivateKeyPEM(pemData, nil)
//	rsaKey := key.(*rsa.PrivateKey)
func DecodePrivateKeyPEM(data []byte, password []byte) (crypto.PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}

	switch block.Type {
	case PEMTypeRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
		}
		return key, nil
	case PEMTypePrivateKey:
		return DecodePKCS8(block.Bytes, nil)
	case PEMTypeEncryptedPrivateKey:
		if len(password) == 0 {
			return nil, ErrPasswordRequired
		}
		return DecodePKCS8(block.Bytes, password)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPEMType, block.Type)
	}
}

// DecodeRSAPrivateKeyPEM decodes a PEM private key and requires it to be RSA.
func DecodeRSAPrivateKeyPEM(data []byte, password []byte) (*rsa.PrivateKey, error) {
	key, err := DecodePrivateKeyPEM(data, password)
	if err != nil {
		return nil, err
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected RSA, got %T", ErrInvalidPrivateKey, key)
	}
	return rsaKey, nil
}

// EncodePublicKeyPEM encodes a public key as a PKIX "PUBLIC KEY" PEM block.
//
// Example:
//
//	pemData, err := encoding.EncodePublicKeyPEM(&privateKey.PublicKey)
func EncodePublicKeyPEM(publicKey crypto.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, ErrInvalidPublicKey
	}
	if rsaPub, ok := publicKey.(*rsa.PublicKey); ok && rsaPub == nil {
		return nil, ErrInvalidPublicKey
	}

	der, err := EncodePublicKeyPKIX(publicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  PEMTypePublicKey,
		Bytes: der,
	}), nil
}

// DecodePublicKeyPEM decodes a PKIX "PUBLIC KEY" or PKCS#1
// "RSA PUBLIC KEY" PEM block.
func DecodePublicKeyPEM(data []byte) (crypto.PublicKey, error) {
	if len(data) == 0 {
		return nil, ErrInvalidData
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMEncoding
	}

	switch block.Type {
	case PEMTypePublicKey:
		return DecodePublicKeyPKIX(block.Bytes)
	case PEMTypeRSAPublicKey:
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPEMType, block.Type)
	}
}
