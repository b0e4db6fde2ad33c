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

//go:build !linux

package discovery

// Removable drive detection is only implemented on Linux. Elsewhere the
// root must come from PDFSIGN_USB_PATH or WithRemovableRoot.
const (
	defaultMountsFile  = ""
	defaultSysBlockDir = ""
)
