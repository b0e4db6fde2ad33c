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

package service

import (
	"errors"
	"os"

	"github.com/jeremyhahn/go-pdfsign/pkg/document"
	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/keystore"
	"github.com/jeremyhahn/go-pdfsign/pkg/signing"
)

var (
	ErrKeyFileNotFound = errors.New("service: key file not found")
	ErrInvalidKeyFile  = errors.New("service: key file does not contain a usable key")
	ErrNoRemovableDir  = errors.New("service: removable directory required")
)

// Error type labels used for metrics.
const (
	errTypeWrongPIN      = "wrong_pin"
	errTypeInvalidPIN    = "invalid_pin"
	errTypeAlreadySigned = "already_signed"
	errTypeKeyExists     = "key_exists"
	errTypeOutputExists  = "output_exists"
	errTypeNotFound      = "not_found"
	errTypeInvalidKey    = "invalid_key"
	errTypeOther         = "other"
)

func errorType(err error) string {
	switch {
	case errors.Is(err, keyguard.ErrDecryptionFailed):
		return errTypeWrongPIN
	case errors.Is(err, keyguard.ErrInvalidPIN):
		return errTypeInvalidPIN
	case errors.Is(err, signing.ErrAlreadySigned):
		return errTypeAlreadySigned
	case errors.Is(err, keystore.ErrKeyExists):
		return errTypeKeyExists
	case errors.Is(err, document.ErrFileExists):
		return errTypeOutputExists
	case errors.Is(err, ErrKeyFileNotFound), errors.Is(err, os.ErrNotExist):
		return errTypeNotFound
	case errors.Is(err, ErrInvalidKeyFile):
		return errTypeInvalidKey
	default:
		return errTypeOther
	}
}
