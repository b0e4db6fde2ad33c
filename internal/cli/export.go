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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		outPath  string
		force    bool
		pinStdin bool
	)
	cmd := &cobra.Command{
		Use:   "export <key-file>",
		Short: "Export a private key as encrypted PKCS#8",
		Long: `Unlock a PIN-protected private key and write it as an encrypted PKCS#8
PEM protected by a passphrase, for use with other tools.

With --pin-stdin the PIN is read from the first line of stdin and the
passphrase from the second.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (required)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	cmd.Flags().BoolVar(&pinStdin, "pin-stdin", false, "read PIN and passphrase from stdin")
	_ = cmd.MarkFlagRequired("out")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		keyPath := args[0]
		if !force {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%w: %s", ErrOutputFileExists, outPath)
			}
		}

		unlock, err := lockFile(keyPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := unlock(); err != nil {
				a.logger.Warn("failed to release key lock", "error", err.Error())
			}
		}()

		reader := a.secretReader(pinStdin)
		pin, err := reader.ReadSecret("PIN", false)
		if err != nil {
			return err
		}
		defer clear(pin)
		passphrase, err := reader.ReadSecret("Export passphrase", true)
		if err != nil {
			if errors.Is(err, ErrNoInput) {
				return fmt.Errorf("passphrase: %w", err)
			}
			return err
		}
		defer clear(passphrase)

		pemBytes, err := a.svc.ExportPrivateKey(cmd.Context(), keyPath, string(pin), passphrase)
		if err != nil {
			return err
		}
		defer clear(pemBytes)

		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if !force {
			flags |= os.O_EXCL
		}
		// #nosec G304 - output path is provided by the user
		f, err := os.OpenFile(outPath, flags, 0o600)
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputFileExists, outPath)
		}
		if err != nil {
			return err
		}
		if _, err := f.Write(pemBytes); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		return a.printer.PrintSuccess(fmt.Sprintf("Private key exported to %s", outPath))
	})
	return cmd
}
