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
	"fmt"
	"io"
	"os"

	"github.com/jeremyhahn/go-pdfsign/internal/config"
	"github.com/jeremyhahn/go-pdfsign/pkg/discovery"
	"github.com/jeremyhahn/go-pdfsign/pkg/keygen"
	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/metrics"
	"github.com/jeremyhahn/go-pdfsign/pkg/service"
	"github.com/jeremyhahn/go-pdfsign/pkg/signing"
	"github.com/spf13/cobra"
)

var (
	ErrKeyBusy          = errors.New("key file is in use by another process")
	ErrDocumentInvalid  = errors.New("signature is not valid")
	ErrAmbiguousKey     = errors.New("more than one key found, select one explicitly")
	ErrNoKeyFound       = errors.New("no key found")
	ErrOutputFileExists = errors.New("output file already exists")
)

// annotationNoSetup marks commands that run without configuration,
// logging or the service.
const annotationNoSetup = "pdfsign/no-setup"

// app is the per-invocation state shared by all commands.
type app struct {
	opts    *Config
	cfg     *config.Config
	logger  *logging.Logger
	logFile *os.File
	svc     *service.Service
	printer *Printer
	resolve func()

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the command tree. in, out and errOut replace the
// process streams when non-nil.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	a := &app{opts: NewConfig(), in: in, out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "pdfsign",
		Short: "pdfsign - PIN-protected PDF signing tool",
		Long: `pdfsign creates RSA key pairs whose private half is kept on removable
media encrypted under a short PIN, signs PDF documents with them and
verifies signed documents against a public key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (YAML)")
	flags.StringP(keyOutput, "o", string(OutputFormatText), "output format (text, json)")
	flags.BoolP(keyVerbose, "v", false, "verbose output")
	flags.String(keyKeysDir, "", "directory holding public keys (default keys)")
	flags.String(keyUSBPath, "", "directory used as removable media instead of detection")
	flags.String(keyLogLevel, "", "log level (debug, info, warn, error)")
	flags.String(keyLogDir, "", "directory for the log file")
	flags.String(keyMetricsTextfile, "", "write Prometheus metrics to this file after each command")
	v := newViper(flags)
	a.resolve = func() { a.opts.resolve(v) }

	rootCmd.AddCommand(
		newKeygenCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newKeysCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// Execute runs the root command against the process streams and
// returns the exit code.
func Execute() int {
	cmd := NewRootCommand(nil, nil, nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		format := cmd.Flag(keyOutput).Value.String()
		_ = NewPrinter(format, os.Stderr).PrintError(err)
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) (err error) {
	defer func() {
		if err != nil {
			_ = a.teardown()
		}
	}()
	a.resolve()
	switch OutputFormat(a.opts.OutputFormat) {
	case OutputFormatText, OutputFormatJSON:
	default:
		return fmt.Errorf("unknown output format: %s", a.opts.OutputFormat)
	}
	a.printer = NewPrinter(a.opts.OutputFormat, a.out)
	if cmd.Annotations[annotationNoSetup] != "" {
		return nil
	}

	cfg, err := a.opts.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	var logOut io.Writer = a.errOut
	if cfg.Logging.Dir != "" {
		name := cfg.Logging.File
		if name == "" {
			name = logging.DefaultLogFile
		}
		f, err := logging.NewFileOutput(cfg.Logging.Dir, name)
		if err != nil {
			return err
		}
		a.logFile = f
		logOut = io.MultiWriter(a.errOut, f)
	}
	a.logger = logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})
	for _, w := range cfg.Warnings {
		a.logger.Warn("ignored environment override", "detail", w)
	}

	if cfg.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	a.svc, err = newService(cfg, a.logger, a.progress())
	return err
}

// run wraps a command so that the metrics textfile is written and the
// log file closed whether or not the command fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if terr := a.teardown(); err == nil {
				err = terr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	var err error
	if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		err = metrics.WriteTextfile(a.cfg.Metrics.Textfile)
	}
	if a.logFile != nil {
		if cerr := a.logFile.Close(); err == nil {
			err = cerr
		}
		a.logFile = nil
	}
	return err
}

// progress prints service steps to stderr in verbose mode.
func (a *app) progress() service.ProgressFunc {
	if !a.opts.Verbose {
		return nil
	}
	return func(step string) {
		fmt.Fprintln(a.errOut, step)
	}
}

func (a *app) discoverer() *discovery.Discoverer {
	opts := []discovery.Option{
		discovery.WithKeysDir(a.cfg.Keys.Dir),
		discovery.WithLogger(a.logger),
	}
	if a.cfg.Keys.RemovablePath != "" {
		opts = append(opts, discovery.WithRemovableRoot(a.cfg.Keys.RemovablePath))
	}
	return discovery.New(opts...)
}

func (a *app) secretReader(forceLines bool) SecretReader {
	return newSecretReader(a.in, a.errOut, forceLines)
}

// newService builds the service from configuration.
func newService(cfg *config.Config, log *logging.Logger, progress service.ProgressFunc) (*service.Service, error) {
	gen, err := keygen.New(keygen.WithKeySize(cfg.Keys.KeySize), keygen.WithLogger(log))
	if err != nil {
		return nil, err
	}
	kdf, err := cfg.KDF()
	if err != nil {
		return nil, err
	}
	guard := keyguard.New(
		keyguard.WithKDF(kdf),
		keyguard.WithArgon2Params(cfg.Argon2Params()),
		keyguard.WithLogger(log))
	engine := signing.NewEngine(
		signing.WithScheme(cfg.Scheme()),
		signing.WithPropertyName(cfg.Signing.PropertyName),
		signing.WithLogger(log))
	policy := cfg.PINPolicy()

	return service.New(&service.Config{
		Generator:    gen,
		Guard:        guard,
		PINPolicy:    &policy,
		Engine:       engine,
		KeysDir:      cfg.Keys.Dir,
		SignedPrefix: cfg.Signing.SignedPrefix,
		Logger:       log,
		Progress:     progress,
	})
}

// pickOne returns the only element of found, or an error naming them.
func pickOne(kind string, found []string) (string, error) {
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: no %s", ErrNoKeyFound, kind)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %d %s: %v", ErrAmbiguousKey, len(found), kind, found)
	}
}
