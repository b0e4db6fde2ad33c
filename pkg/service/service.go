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

// Package service wires key generation, PIN protection, key storage and
// document signing into the operations exposed to the CLI and the
// verification server.
package service

import (
	"context"
	"crypto"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeremyhahn/go-pdfsign/pkg/correlation"
	"github.com/jeremyhahn/go-pdfsign/pkg/document"
	"github.com/jeremyhahn/go-pdfsign/pkg/encoding"
	"github.com/jeremyhahn/go-pdfsign/pkg/keygen"
	"github.com/jeremyhahn/go-pdfsign/pkg/keyguard"
	"github.com/jeremyhahn/go-pdfsign/pkg/keystore"
	"github.com/jeremyhahn/go-pdfsign/pkg/logging"
	"github.com/jeremyhahn/go-pdfsign/pkg/metrics"
	"github.com/jeremyhahn/go-pdfsign/pkg/signing"
	"github.com/jeremyhahn/go-pdfsign/pkg/storage/file"
	"github.com/jeremyhahn/go-pdfsign/pkg/verification"
)

// DefaultKeysDir is where public keys are written when no directory is
// configured.
const DefaultKeysDir = "keys"

// Progress steps reported through ProgressFunc.
const (
	StepGenerating   = "Generating RSA keypair..."
	StepEncrypting   = "Encrypting private key..."
	StepSavingKeys   = "Saving key files..."
	StepDecrypting   = "Decrypting private key..."
	StepSigning      = "Signing document..."
	StepSaving       = "Saving signed document..."
	StepVerifying    = "Verifying signature..."
	StepExporting    = "Exporting private key..."
	StepIdentityDone = "Key pair created"
)

// ProgressFunc receives a human readable step description.
type ProgressFunc func(step string)

// SignOption configures a single SignDocument call.
type SignOption func(*signOptions)

type signOptions struct {
	overwrite bool
}

// WithOverwrite allows SignDocument to replace an existing signed copy.
func WithOverwrite(overwrite bool) SignOption {
	return func(o *signOptions) {
		o.overwrite = overwrite
	}
}

// Identity describes the files written by CreateIdentity.
type Identity struct {
	Basename       string `json:"basename"`
	PrivateKeyPath string `json:"private_key_path"`
	PublicKeyPath  string `json:"public_key_path"`
	KeySize        int    `json:"key_size"`
}

// Config wires the service. Nil fields get defaults: a 4096-bit
// generator, the SHA-256 guard, the default PIN policy and a PKCS#1 v1.5
// engine.
type Config struct {
	Generator    *keygen.Generator
	Guard        *keyguard.Guard
	PINPolicy    *keyguard.PINPolicy
	Engine       SignatureEngine
	KeysDir      string
	SignedPrefix string
	Logger       *logging.Logger
	Progress     ProgressFunc
}

// SignatureEngine is the part of signing.Engine used by the service.
type SignatureEngine interface {
	Sign(key crypto.Signer, doc *document.Document) (*document.Document, error)
	Verify(pub crypto.PublicKey, doc *document.Document) *verification.Result
}

// Service runs the collaborator-facing operations.
type Service struct {
	generator    *keygen.Generator
	guard        *keyguard.Guard
	policy       keyguard.PINPolicy
	engine       SignatureEngine
	keysDir      string
	signedPrefix string
	logger       *logging.Logger
	progress     ProgressFunc
}

// New creates a Service from cfg.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Service{
		generator:    cfg.Generator,
		guard:        cfg.Guard,
		engine:       cfg.Engine,
		keysDir:      cfg.KeysDir,
		signedPrefix: cfg.SignedPrefix,
		logger:       cfg.Logger,
		progress:     cfg.Progress,
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.generator == nil {
		g, err := keygen.New(keygen.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.generator = g
	}
	if s.guard == nil {
		s.guard = keyguard.New(keyguard.WithLogger(s.logger))
	}
	if cfg.PINPolicy != nil {
		s.policy = *cfg.PINPolicy
	} else {
		s.policy = keyguard.DefaultPINPolicy()
	}
	if s.engine == nil {
		s.engine = signing.NewEngine(signing.WithLogger(s.logger))
	}
	if s.keysDir == "" {
		s.keysDir = DefaultKeysDir
	}
	return s, nil
}

// KeysDir returns the local public key directory.
func (s *Service) KeysDir() string {
	return s.keysDir
}

// PINPolicy returns the policy enforced on new PINs.
func (s *Service) PINPolicy() keyguard.PINPolicy {
	return s.policy
}

func (s *Service) step(msg string) {
	if s.progress != nil {
		s.progress(msg)
	}
}

// begin tags ctx with an operation ID and returns a logger carrying it
// plus a function that records the outcome.
func (s *Service) begin(ctx context.Context, op string) (context.Context, *logging.Logger, func(error)) {
	ctx, opID := correlation.Ensure(ctx)
	log := s.logger.With(correlation.LogAttr, opID, "operation", op)
	start := time.Now()
	log.Debug("operation started")
	return ctx, log, func(err error) {
		elapsed := time.Since(start).Seconds()
		if err != nil {
			metrics.RecordOperation(op, metrics.StatusError, elapsed)
			metrics.RecordError(op, errorType(err))
			log.Warn("operation failed", "error", err.Error())
			return
		}
		metrics.RecordOperation(op, metrics.StatusSuccess, elapsed)
		log.Debug("operation finished", "seconds", elapsed)
	}
}

// GenerateKeyPair creates a new RSA key pair in memory.
func (s *Service) GenerateKeyPair(ctx context.Context) (kp *keygen.KeyPair, err error) {
	_, log, done := s.begin(ctx, metrics.OpKeygen)
	defer func() { done(err) }()

	s.step(StepGenerating)
	kp, err = s.generator.Generate()
	if err != nil {
		return nil, err
	}
	log.Info("key pair generated", "bits", s.generator.KeySize())
	return kp, nil
}

// EncryptPrivateKey seals a PEM private key under pin and returns the
// blob in file form. The PIN must satisfy the configured policy.
func (s *Service) EncryptPrivateKey(ctx context.Context, privateKeyPEM []byte, pin string) (out []byte, err error) {
	_, _, done := s.begin(ctx, metrics.OpEncrypt)
	defer func() { done(err) }()

	if err := s.policy.Validate(pin); err != nil {
		return nil, err
	}
	s.step(StepEncrypting)
	blob, err := s.guard.Encrypt(privateKeyPEM, pin)
	if err != nil {
		return nil, err
	}
	return blob.Bytes(), nil
}

// DecryptPrivateKey reads the blob at path and opens it with pin. A wrong
// PIN or a damaged file yields keyguard.ErrDecryptionFailed.
func (s *Service) DecryptPrivateKey(ctx context.Context, path, pin string) (key *rsa.PrivateKey, err error) {
	_, log, done := s.begin(ctx, metrics.OpDecrypt)
	defer func() { done(err) }()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("service: read key file: %w", err)
	}

	s.step(StepDecrypting)
	plaintext, err := s.guard.DecryptBytes(data, pin)
	if err != nil {
		return nil, err
	}
	defer clear(plaintext)

	key, err = encoding.DecodeRSAPrivateKeyPEM(plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	log.Info("private key unlocked", "file", filepath.Base(path), "bits", key.N.BitLen())
	return key, nil
}

// SignDocument signs the PDF at path and writes the result next to it
// with the signed prefix. The returned string is the output path. An
// already signed input is rejected with signing.ErrAlreadySigned and no
// file is written. An existing signed copy is left alone and
// document.ErrFileExists returned unless WithOverwrite(true) is given.
func (s *Service) SignDocument(ctx context.Context, key crypto.Signer, path string, opts ...SignOption) (outPath string, err error) {
	_, log, done := s.begin(ctx, metrics.OpSign)
	defer func() { done(err) }()

	var o signOptions
	for _, opt := range opts {
		opt(&o)
	}
	outPath = s.SignedPath(path)
	if !o.overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", fmt.Errorf("%w: %s", document.ErrFileExists, outPath)
		}
	}

	doc, err := document.Load(path)
	if err != nil {
		return "", err
	}

	s.step(StepSigning)
	signed, err := s.engine.Sign(key, doc)
	if err != nil {
		return "", err
	}

	s.step(StepSaving)
	save := signed.Create
	if o.overwrite {
		save = signed.Save
	}
	if err := save(outPath); err != nil {
		return "", err
	}
	log.Info("document signed", "input", filepath.Base(path), "output", filepath.Base(outPath))
	return outPath, nil
}

// SignedPath returns where SignDocument writes the signed copy of path.
func (s *Service) SignedPath(path string) string {
	return signing.SignedFileName(path, s.signedPrefix)
}

// VerifyDocument checks the PDF at path against pub. It never returns an
// error; an unreadable file is reported in the Result.
func (s *Service) VerifyDocument(ctx context.Context, pub crypto.PublicKey, path string) *verification.Result {
	_, log, done := s.begin(ctx, metrics.OpVerify)
	defer done(nil)

	doc, err := document.Load(path)
	if err != nil {
		return s.report(log, verification.Failed(verification.ReasonUnreadableDocument, err), filepath.Base(path))
	}
	return s.report(log, s.verify(pub, doc), filepath.Base(path))
}

// VerifyDocumentBytes checks an in-memory PDF against pub.
func (s *Service) VerifyDocumentBytes(ctx context.Context, pub crypto.PublicKey, data []byte) *verification.Result {
	_, log, done := s.begin(ctx, metrics.OpVerify)
	defer done(nil)

	doc, err := document.FromBytes(data)
	if err != nil {
		return s.report(log, verification.Failed(verification.ReasonUnreadableDocument, err), "")
	}
	return s.report(log, s.verify(pub, doc), "")
}

func (s *Service) verify(pub crypto.PublicKey, doc *document.Document) *verification.Result {
	s.step(StepVerifying)
	return s.engine.Verify(pub, doc)
}

func (s *Service) report(log *logging.Logger, result *verification.Result, name string) *verification.Result {
	metrics.RecordVerification(result.Reason)
	log.Info("document verified", "document", name, "valid", result.Valid, "reason", result.Reason)
	return result
}

// LoadPublicKey reads a PEM public key from path.
func (s *Service) LoadPublicKey(path string) (crypto.PublicKey, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("service: read public key: %w", err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey decodes a PEM public key.
func ParsePublicKey(data []byte) (crypto.PublicKey, error) {
	pub, err := encoding.DecodePublicKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	return pub, nil
}

// CreateIdentity runs the full key creation flow: generate a key pair,
// encrypt the private key under pin, write {basename}_private.key into
// removableDir and {basename}_public.pem into the keys directory. The
// keys directory is created if missing; removableDir must exist. No file
// is left behind on failure.
func (s *Service) CreateIdentity(ctx context.Context, basename, pin, removableDir string) (id *Identity, err error) {
	_, log, done := s.begin(ctx, metrics.OpKeygen)
	defer func() { done(err) }()

	if removableDir == "" {
		return nil, ErrNoRemovableDir
	}
	if err := keystore.ValidateBasename(basename); err != nil {
		return nil, err
	}
	if err := s.policy.Validate(pin); err != nil {
		return nil, err
	}
	removable, err := file.Open(removableDir)
	if err != nil {
		return nil, err
	}
	defer removable.Close()
	local, err := file.New(s.keysDir)
	if err != nil {
		return nil, err
	}
	defer local.Close()
	ks := keystore.New(removable, local, keystore.WithLogger(log))

	for _, check := range []struct {
		backend interface{ Exists(string) (bool, error) }
		name    string
	}{
		{removable, keystore.PrivateKeyName(basename)},
		{local, keystore.PublicKeyName(basename)},
	} {
		if exists, _ := check.backend.Exists(check.name); exists {
			return nil, fmt.Errorf("%w: %s", keystore.ErrKeyExists, check.name)
		}
	}

	s.step(StepGenerating)
	kp, err := s.generator.Generate()
	if err != nil {
		return nil, err
	}

	privPEM, err := kp.PrivateKeyPEM()
	if err != nil {
		return nil, err
	}
	defer clear(privPEM)
	pubPEM, err := kp.PublicKeyPEM()
	if err != nil {
		return nil, err
	}

	s.step(StepEncrypting)
	blob, err := s.guard.Encrypt(privPEM, pin)
	if err != nil {
		return nil, err
	}

	s.step(StepSavingKeys)
	privName, err := ks.SavePrivateKey(basename, blob.Bytes())
	if err != nil {
		return nil, err
	}
	pubName, err := ks.SavePublicKey(basename, pubPEM)
	if err != nil {
		if rmErr := ks.RemovePrivateKey(privName); rmErr != nil {
			log.Warn("failed to roll back private key", "error", rmErr.Error())
		}
		return nil, err
	}

	id = &Identity{
		Basename:       basename,
		PrivateKeyPath: filepath.Join(removable.Root(), privName),
		PublicKeyPath:  filepath.Join(local.Root(), pubName),
		KeySize:        s.generator.KeySize(),
	}
	s.step(StepIdentityDone)
	log.Info("identity created", "basename", basename, "kdf", s.guard.KDF().String())
	return id, nil
}

// ExportPrivateKey unlocks the blob at path with pin and re-encodes the
// key as an encrypted PKCS#8 PEM protected by passphrase.
func (s *Service) ExportPrivateKey(ctx context.Context, path, pin string, passphrase []byte) (out []byte, err error) {
	ctx, _, done := s.begin(ctx, metrics.OpExport)
	defer func() { done(err) }()

	key, err := s.DecryptPrivateKey(ctx, path, pin)
	if err != nil {
		return nil, err
	}
	s.step(StepExporting)
	return encoding.EncodeEncryptedPKCS8PEM(key, passphrase)
}
