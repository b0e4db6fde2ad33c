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

//go:build !unix

package cli

import "os"

// lockFile only checks that path exists; advisory locks are unix only.
func lockFile(path string) (func() error, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return func() error { return nil }, nil
}
