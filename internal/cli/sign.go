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
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/ratelimit"
	"github.com/jeremyhahn/go-pdfsign/pkg/service"
	"github.com/spf13/cobra"
)

func newSignCmd(a *app) *cobra.Command {
	var (
		keyPath  string
		pinStdin bool
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "sign <pdf>",
		Short: "Sign a PDF document",
		Long: `Unlock a private key with its PIN and sign a PDF. The signed copy is
written next to the input with the SIGNED_ prefix; the input is never
modified. Documents that are already signed are refused, and so is an
existing signed copy unless --force is given.

Without --key the only private key found on removable media is used.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "encrypted private key file (*.key)")
	cmd.Flags().BoolVar(&pinStdin, "pin-stdin", false, "read PINs from stdin, one per line")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing signed copy")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		outPath := a.svc.SignedPath(args[0])
		if _, err := os.Stat(outPath); err == nil && !force {
			return fmt.Errorf("%w: %s", ErrOutputFileExists, outPath)
		}

		if keyPath == "" {
			found, err := a.discoverer().PrivateKeys()
			if err != nil {
				return err
			}
			if keyPath, err = pickOne("private keys", found); err != nil {
				return err
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

		key, err := a.unlockKey(cmd.Context(), keyPath, a.secretReader(pinStdin))
		if err != nil {
			return err
		}

		out, err := a.svc.SignDocument(cmd.Context(), key, args[0], service.WithOverwrite(force))
		if err != nil {
			return err
		}
		return a.printer.PrintSigned(args[0], out)
	})
	return cmd
}

// unlockKey prompts for the PIN of keyPath until it decrypts or the
// configured number of attempts is used up. Attempts after the first are
// spaced by guard.pin_retry_delay.
func (a *app) unlockKey(ctx context.Context, keyPath string, reader SecretReader) (*rsa.PrivateKey, error) {
	attempts := a.cfg.Guard.PINAttempts
	if attempts < 1 {
		attempts = 1
	}
	throttle := ratelimit.New(&ratelimit.Config{
		Enabled:  a.cfg.Guard.PINRetryDelay > 0,
		Interval: a.cfg.Guard.PINRetryDelay,
		Burst:    1,
	})
	defer throttle.Stop()
	policy := a.svc.PINPolicy()

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := throttle.Wait(ctx, keyPath); err != nil {
			return nil, err
		}
		pin, err := reader.ReadSecret("PIN", false)
		if err != nil {
			return nil, err
		}
		key, err := a.tryPIN(ctx, keyPath, string(pin), policy)
		clear(pin)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, keyguard.ErrDecryptionFailed) && !errors.Is(err, keyguard.ErrInvalidPIN) {
			return nil, err
		}
		if left := attempts - attempt; left > 0 {
			fmt.Fprintf(a.errOut, "Wrong PIN, %d attempt(s) left\n", left)
		}
	}
	return nil, ErrTooManyAttempts
}

func (a *app) tryPIN(ctx context.Context, keyPath, pin string, policy keyguard.PINPolicy) (*rsa.PrivateKey, error) {
	if err := policy.Validate(pin); err != nil {
		return nil, err
	}
	return a.svc.DecryptPrivateKey(ctx, keyPath, pin)
}
