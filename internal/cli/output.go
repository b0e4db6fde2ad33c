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
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-pdfsign/pkg/discovery"
	"github.com/jeremyhahn/go-pdfsign/pkg/service"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintIdentity prints the files written by keygen
func (p *Printer) PrintIdentity(id *service.Identity) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(id)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Key pair created for %s (RSA %d)\n", id.Basename, id.KeySize)
		fmt.Fprintf(p.writer, "  Private key: %s\n", id.PrivateKeyPath)
		fmt.Fprintf(p.writer, "  Public key:  %s\n", id.PublicKeyPath)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintResult prints a verification result
func (p *Printer) PrintResult(path string, result *verification.Result) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"document": path,
			"valid":    result.Valid,
			"reason":   result.Reason,
			"detail":   result.Detail,
		})
	case OutputFormatText:
		status := "INVALID"
		if result.Valid {
			status = "VALID"
		}
		fmt.Fprintf(p.writer, "%s: %s\n", status, path)
		fmt.Fprintf(p.writer, "  %s\n", result.String())
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeys prints a discovery result
func (p *Printer) PrintKeys(result *discovery.Result) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(result)
	case OutputFormatText:
		if len(result.RemovableRoots) == 0 {
			fmt.Fprintln(p.writer, "No removable media found")
		} else {
			fmt.Fprintln(p.writer, "Removable media:")
			for _, root := range result.RemovableRoots {
				fmt.Fprintf(p.writer, "  - %s\n", root)
			}
		}
		printList(p.writer, "Private keys:", "No private keys found", result.PrivateKeys)
		printList(p.writer, "Public keys:", "No public keys found", result.PublicKeys)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

func printList(w io.Writer, title, empty string, items []string) {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// PrintSigned prints the location of a signed copy
func (p *Printer) PrintSigned(source, signed string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":   "success",
			"document": source,
			"signed":   signed,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Signed %s\n  Output: %s\n", source, signed)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

func (p *Printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
