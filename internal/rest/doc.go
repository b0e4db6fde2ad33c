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

// Package rest provides the signature verification server.
//
// The server only ever sees public keys. Documents are uploaded, checked
// against a public key from the configured keys directory and discarded;
// nothing is signed or stored over the network.
//
// # Server Setup
//
//	svc, _ := service.New(&service.Config{KeysDir: "keys"})
//	server, _ := rest.NewServer(&rest.Config{
//	    Addr:    "127.0.0.1:8443",
//	    Service: svc,
//	    KeysDir: "keys",
//	})
//
//	go server.Start()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	server.Stop(ctx)
//
// # API Endpoints
//
// Health:
//   - GET /health - liveness, {"status":"ok"}
//   - GET /health/ready - readiness, runs the registered checks
//
// Metrics:
//   - GET /metrics - Prometheus exposition (path configurable)
//
// Keys:
//   - GET /api/v1/keys - public key file names in the keys directory
//
// Verification:
//   - POST /api/v1/verify?key=<name> - body is the PDF. Responds 200 with
//     the verification result even when the signature is invalid; 400 for
//     a missing or malformed key name or an oversized body, 404 for an
//     unknown key.
//
// # Error Responses
//
//	{
//	  "error": "key not found",
//	  "message": "alice_public.pem",
//	  "code": 404
//	}
//
// Every response carries an X-Operation-ID header, taken from the request
// when present.
package rest
