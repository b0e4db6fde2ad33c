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

func newVerifyCmd(a *app) *cobra.Command {
	var pubPath string
	cmd := &cobra.Command{
		Use:   "verify <pdf>",
		Short: "Verify a signed PDF document",
		Long: `Check the signature embedded in a PDF against a public key. The command
exits non-zero when the signature is missing, malformed or does not
match.

Without --pub the only public key in the keys directory is used.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&pubPath, "pub", "", "public key file (*.pem)")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		if pubPath == "" {
			found, err := a.discoverer().PublicKeys()
			if err != nil {
				return err
			}
			if pubPath, err = pickOne("public keys", found); err != nil {
				return err
			}
		}
		pub, err := a.svc.LoadPublicKey(pubPath)
		if err != nil {
			return err
		}

		result := a.svc.VerifyDocument(cmd.Context(), pub, args[0])
		if err := a.printer.PrintResult(args[0], result); err != nil {
			return err
		}
		if !result.Valid {
			return ErrDocumentInvalid
		}
		return nil
	})
	return cmd
}
