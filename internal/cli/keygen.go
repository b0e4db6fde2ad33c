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
	"github.com/spf13/cobra"
)

func newKeygenCmd(a *app) *cobra.Command {
	var (
		usbDir   string
		pinStdin bool
	)
	cmd := &cobra.Command{
		Use:   "keygen <basename>",
		Short: "Create a PIN-protected key pair",
		Long: `Generate an RSA key pair. The private key is encrypted under a PIN and
written to removable media as <basename>_private.key; the public key is
written to the keys directory as <basename>_public.pem.

Without --usb the first detected removable drive is used.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&usbDir, "usb", "", "directory on removable media receiving the private key")
	cmd.Flags().BoolVar(&pinStdin, "pin-stdin", false, "read the PIN from stdin instead of the terminal")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		basename := args[0]
		if usbDir == "" {
			roots, err := a.discoverer().RemovableRoots()
			if err != nil {
				return err
			}
			usbDir = roots[0]
			a.logger.Info("using removable media", "path", usbDir)
		}

		pin, err := a.secretReader(pinStdin).ReadSecret("PIN", true)
		if err != nil {
			return err
		}
		defer clear(pin)

		id, err := a.svc.CreateIdentity(cmd.Context(), basename, string(pin), usbDir)
		if err != nil {
			return err
		}
		return a.printer.PrintIdentity(id)
	})
	return cmd
}
