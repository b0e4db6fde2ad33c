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
	"errors"
	"os/signal"
	"syscall"

	"github.com/jeremyhahn/go-pdfsign/internal/rest"
	"github.com/jeremyhahn/go-pdfsign/pkg/health"
	"github.com/jeremyhahn/go-pdfsign/pkg/metrics"
	"github.com/jeremyhahn/go-pdfsign/pkg/ratelimit"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the signature verification server",
		Long: `Serve signature verification over HTTP(S). Documents are verified
against public keys in the keys directory; the server never handles
private keys.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.host and server.port)")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		srvCfg := a.cfg.Server
		if addr == "" {
			addr = srvCfg.Addr()
		}
		tlsConfig, err := srvCfg.TLS.LoadTLSConfig()
		if err != nil {
			return err
		}

		var limiter *ratelimit.Limiter
		if srvCfg.RateLimit.Enabled {
			limiter = ratelimit.New(&ratelimit.Config{
				Enabled:           true,
				RequestsPerMinute: srvCfg.RateLimit.RequestsPerMin,
				Burst:             srvCfg.RateLimit.Burst,
			})
		}

		checker := health.NewChecker()
		checker.RegisterCheck("keys_dir", health.DirCheck("keys_dir", a.cfg.Keys.Dir, true))

		metricsPath := ""
		if a.cfg.Metrics.Enabled {
			metricsPath = a.cfg.Metrics.Path
		}

		server, err := rest.NewServer(&rest.Config{
			Addr:          addr,
			Verifier:      a.svc,
			KeysDir:       a.cfg.Keys.Dir,
			MaxBodyBytes:  srvCfg.MaxBodyBytes,
			TLSConfig:     tlsConfig,
			RateLimiter:   limiter,
			HealthChecker: checker,
			MetricsPath:   metricsPath,
			Logger:        a.logger,
			ReadTimeout:   srvCfg.ReadTimeout,
			WriteTimeout:  srvCfg.WriteTimeout,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		collector := metrics.StartResourceCollector(ctx, 0)
		defer collector.Stop()

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return <-errCh
	})
	return cmd
}
