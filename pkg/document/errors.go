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

package document

import "errors"

var (
	// ErrEmptyDocument is returned when a document has no bytes.
	ErrEmptyDocument = errors.New("document: empty document")

	// ErrNotPDF is returned when the data does not start with a PDF header.
	ErrNotPDF = errors.New("document: not a PDF")

	// ErrUnreadableDocument is returned when the PDF cannot be parsed or its
	// text cannot be extracted.
	ErrUnreadableDocument = errors.New("document: unreadable document")

	// ErrInvalidPropertyName is returned for empty or non-name property keys.
	ErrInvalidPropertyName = errors.New("document: invalid property name")

	// ErrFileExists is returned by Create when the target already exists.
	ErrFileExists = errors.New("document: file already exists")
)
