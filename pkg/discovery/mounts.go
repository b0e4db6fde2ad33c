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

package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// removableMounts reads a mounts table in /proc/mounts format and keeps
// mount points whose block device is flagged removable in sysfs.
func removableMounts(mountsFile, sysBlockDir string) ([]string, error) {
	f, err := os.Open(mountsFile)
	if err != nil {
		return nil, fmt.Errorf("discovery: read mount table: %w", err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var roots []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}
		mountPoint := unescapeMount(fields[1])
		if seen[mountPoint] {
			continue
		}
		if isRemovable(sysBlockDir, filepath.Base(fields[0])) {
			seen[mountPoint] = true
			roots = append(roots, mountPoint)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("discovery: read mount table: %w", err)
	}
	sort.Strings(roots)
	return roots, nil
}

// isRemovable checks <sysBlockDir>/<disk>/removable for the disk that
// holds partition dev.
func isRemovable(sysBlockDir, dev string) bool {
	for _, disk := range diskCandidates(dev) {
		data, err := os.ReadFile(filepath.Join(sysBlockDir, disk, "removable"))
		if err == nil {
			return strings.TrimSpace(string(data)) == "1"
		}
	}
	return false
}

// diskCandidates maps a partition name to possible parent disks:
// sdb1 -> sdb, mmcblk0p1 -> mmcblk0, nvme0n1p2 -> nvme0n1.
func diskCandidates(dev string) []string {
	candidates := []string{dev}
	trimmed := strings.TrimRight(dev, "0123456789")
	if trimmed != dev && trimmed != "" {
		candidates = append(candidates, trimmed)
		if strings.HasSuffix(trimmed, "p") && len(trimmed) > 1 {
			prev := trimmed[len(trimmed)-2]
			if prev >= '0' && prev <= '9' {
				candidates = append(candidates, trimmed[:len(trimmed)-1])
			}
		}
	}
	return candidates
}

// unescapeMount decodes the octal escapes (\040 for space) used in the
// mounts table.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
