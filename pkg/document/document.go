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

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const pdfHeader = "%PDF-"

var disableConfigDir sync.Once

// Document is an immutable PDF held in memory. Operations that change the
// PDF return a new Document.
type Document struct {
	data []byte
	path string
}

// FromBytes wraps a copy of data. Only the PDF header is checked here;
// full parsing happens lazily.
func FromBytes(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), []byte(pdfHeader)) {
		return nil, ErrNotPDF
	}
	return &Document{data: bytes.Clone(data)}, nil
}

// Load reads a PDF from path.
func Load(path string) (*Document, error) {
	// #nosec G304 - path is chosen by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: failed to read %s: %w", path, err)
	}
	doc, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	doc.path = path
	return doc, nil
}

// Path returns the file the document was loaded from, if any.
func (d *Document) Path() string {
	return d.path
}

// Bytes returns a copy of the PDF bytes.
func (d *Document) Bytes() []byte {
	return bytes.Clone(d.data)
}

// Len returns the size of the PDF in bytes.
func (d *Document) Len() int {
	return len(d.data)
}

// Create writes the PDF to a new file at path with 0644 permissions. An
// existing file is left untouched and ErrFileExists is returned.
func (d *Document) Create(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 - signed PDFs are not secret
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
		return fmt.Errorf("document: failed to create %s: %w", path, err)
	}
	if _, err := f.Write(d.data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("document: failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("document: failed to write %s: %w", path, err)
	}
	return nil
}

// Save writes the PDF to path with 0644 permissions, replacing any
// existing file.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, d.data, 0o644); err != nil { // #nosec G306 - signed PDFs are not secret
		return fmt.Errorf("document: failed to write %s: %w", path, err)
	}
	return nil
}

// Properties returns the custom entries of the document Info dictionary.
// Standard entries such as Title or Producer are not included.
func (d *Document) Properties() (map[string]string, error) {
	props, err := api.Properties(bytes.NewReader(d.data), newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if props == nil {
		props = map[string]string{}
	}
	return props, nil
}

// Property returns a single custom Info entry.
func (d *Document) Property(name string) (string, bool, error) {
	props, err := d.Properties()
	if err != nil {
		return "", false, err
	}
	v, ok := props[name]
	return v, ok, nil
}

// WithProperty returns a new Document with name set in the Info dictionary.
// The receiver is left untouched.
func (d *Document) WithProperty(name, value string) (*Document, error) {
	if err := validatePropertyName(name); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err := api.AddProperties(bytes.NewReader(d.data), &out, map[string]string{name: value}, newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return &Document{data: out.Bytes()}, nil
}

// newConfig returns a pdfcpu configuration that writes classic xref
// tables without object streams, so the text extractor can read the
// output, and that never touches the user config directory.
func newConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

func validatePropertyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPropertyName)
	}
	if strings.ContainsAny(name, " \t\r\n/()<>[]{}%#") {
		return fmt.Errorf("%w: %q", ErrInvalidPropertyName, name)
	}
	return nil
}
