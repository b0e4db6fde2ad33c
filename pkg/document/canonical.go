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

// Package document loads PDFs, reads and writes their Info dictionary and
// reduces them to the canonical bytes that get signed.
//
// The canonical form is the plain text of every page, concatenated in page
// order. Pages without a page object or without text operators add
// nothing. Layout, fonts, images, annotations and metadata are not part
// of it: an edit that moves text around or swaps an image without changing
// the extracted characters keeps an existing signature valid. Adding the
// signature to the Info dictionary does not change the canonical form,
// which is what lets a signed file verify.
package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Canonicalizer reduces a document to the bytes that are hashed and signed.
// Implementations must be deterministic.
type Canonicalizer interface {
	Extract(doc *Document) ([]byte, error)
}

// TextCanonicalizer extracts page text in page order.
type TextCanonicalizer struct{}

// NewTextCanonicalizer returns the text-only canonicalizer.
func NewTextCanonicalizer() *TextCanonicalizer {
	return &TextCanonicalizer{}
}

// Extract returns the concatenated plain text of every page. Any parse or
// extraction failure wraps ErrUnreadableDocument.
func (c *TextCanonicalizer) Extract(doc *Document) (out []byte, err error) {
	if doc == nil || len(doc.data) == 0 {
		return nil, ErrEmptyDocument
	}

	// The PDF parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.data), int64(len(doc.data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadableDocument, i, err)
		}
		buf.WriteString(text)
	}
	// A document without text still has a canonical form: the empty string.
	if buf.Len() == 0 {
		return []byte{}, nil
	}
	return buf.Bytes(), nil
}

var _ Canonicalizer = (*TextCanonicalizer)(nil)
