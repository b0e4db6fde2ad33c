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

// Package discovery finds key files. Encrypted private keys (*.key) are
// searched on removable drives and public keys (*.pem) in the local keys
// directory. Both searches descend into subdirectories.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/metrics"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage/file"
)

// EnvRemovablePath names a directory treated as the only removable drive.
// It is meant for systems without removable drive detection and for tests.
const EnvRemovablePath = "PDFSIGN_USB_PATH"

const (
	privateKeyExt = ".key"
	publicKeyExt  = ".pem"
)

// ErrNoRemovableMedia is returned when no removable drive is mounted.
var ErrNoRemovableMedia = errors.New("discovery: no removable media found")

// Result is the outcome of a full discovery pass.
type Result struct {
	RemovableRoots []string `json:"removable_roots"`
	PrivateKeys    []string `json:"private_keys"`
	PublicKeys     []string `json:"public_keys"`
}

// Discoverer locates removable roots and key files.
type Discoverer struct {
	removableRoot string
	keysDir       string
	mountsFile    string
	sysBlockDir   string
	logger        *logging.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithRemovableRoot fixes the removable root, disabling detection.
func WithRemovableRoot(dir string) Option {
	return func(d *Discoverer) {
		d.removableRoot = dir
	}
}

// WithKeysDir sets the local public key directory.
func WithKeysDir(dir string) Option {
	return func(d *Discoverer) {
		d.keysDir = dir
	}
}

// WithMountTable points detection at alternative mounts and sysfs block
// device locations.
func WithMountTable(mountsFile, sysBlockDir string) Option {
	return func(d *Discoverer) {
		d.mountsFile = mountsFile
		d.sysBlockDir = sysBlockDir
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Discoverer) {
		d.logger = l
	}
}

// New returns a Discoverer. The removable root defaults to
// $PDFSIGN_USB_PATH and the keys directory to "keys".
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		removableRoot: os.Getenv(EnvRemovablePath),
		keysDir:       "keys",
		mountsFile:    defaultMountsFile,
		sysBlockDir:   defaultSysBlockDir,
		logger:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RemovableRoots returns the mount points of removable drives, sorted.
// A configured root short-circuits detection.
func (d *Discoverer) RemovableRoots() ([]string, error) {
	if d.removableRoot != "" {
		info, err := os.Stat(d.removableRoot)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrNoRemovableMedia, d.removableRoot)
		}
		return []string{d.removableRoot}, nil
	}
	if d.mountsFile == "" {
		return nil, ErrNoRemovableMedia
	}

	roots, err := removableMounts(d.mountsFile, d.sysBlockDir)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, ErrNoRemovableMedia
	}
	d.logger.Debug("removable media detected", "count", len(roots))
	return roots, nil
}

// PrivateKeys returns the paths of all *.key files on every removable
// root, sorted.
func (d *Discoverer) PrivateKeys() ([]string, error) {
	roots, err := d.RemovableRoots()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, root := range roots {
		found, err := search(root, privateKeyExt)
		if err != nil {
			d.logger.Warn("skipping removable root", "root", root, "error", err.Error())
			continue
		}
		out = append(out, found...)
	}
	sort.Strings(out)
	metrics.SetKeyCount(metrics.LocationRemovable, len(out))
	return out, nil
}

// PublicKeys returns the paths of all *.pem files under the keys
// directory, sorted. A missing directory yields an empty list.
func (d *Discoverer) PublicKeys() ([]string, error) {
	if _, err := os.Stat(d.keysDir); errors.Is(err, os.ErrNotExist) {
		metrics.SetKeyCount(metrics.LocationLocal, 0)
		return []string{}, nil
	}
	out, err := search(d.keysDir, publicKeyExt)
	if err != nil {
		return nil, err
	}
	metrics.SetKeyCount(metrics.LocationLocal, len(out))
	return out, nil
}

// Discover runs both searches. Missing removable media is not an error
// here; RemovableRoots and PrivateKeys are then empty.
func (d *Discoverer) Discover() (*Result, error) {
	result := &Result{RemovableRoots: []string{}, PrivateKeys: []string{}}

	roots, err := d.RemovableRoots()
	switch {
	case errors.Is(err, ErrNoRemovableMedia):
	case err != nil:
		return nil, err
	default:
		result.RemovableRoots = roots
		if result.PrivateKeys, err = d.PrivateKeys(); err != nil {
			return nil, err
		}
	}

	if result.PublicKeys, err = d.PublicKeys(); err != nil {
		return nil, err
	}
	return result, nil
}

func search(root, ext string) ([]string, error) {
	backend, err := file.Open(root)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	names, err := backend.List("")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.EqualFold(filepath.Ext(name), ext) {
			out = append(out, filepath.Join(root, filepath.FromSlash(name)))
		}
	}
	sort.Strings(out)
	return out, nil
}
