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

package health

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func healthy(ctx context.Context) CheckResult {
	return CheckResult{Status: StatusHealthy}
}

func TestReadyBeforeStart(t *testing.T) {
	c := NewChecker()
	c.RegisterCheck("keys", healthy)

	results := c.Ready(context.Background())
	if len(results) != 1 || results[0].Name != "startup" || results[0].Status != StatusUnhealthy {
		t.Fatalf("expected startup failure, got %+v", results)
	}
	if got := AggregateStatus(results); got != StatusUnhealthy {
		t.Errorf("expected unhealthy before MarkStarted, got %s", got)
	}
}

func TestReady(t *testing.T) {
	c := NewChecker()
	c.RegisterCheck("b", healthy)
	c.RegisterCheck("a", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "custom", Status: StatusDegraded}
	})
	c.RegisterCheck("ignored", nil)
	c.MarkStarted()

	results := c.Ready(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "custom" || results[1].Name != "b" {
		t.Errorf("unexpected order or names: %+v", results)
	}
	if got := AggregateStatus(results); got != StatusDegraded {
		t.Errorf("expected degraded, got %s", got)
	}

	// Registering under the same name replaces the check.
	c.RegisterCheck("a", healthy)
	if got := AggregateStatus(c.Ready(context.Background())); got != StatusHealthy {
		t.Errorf("expected healthy after replacing degraded check, got %s", got)
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []CheckResult{{Status: StatusHealthy}, {Status: StatusHealthy}}, StatusHealthy},
		{"degraded", []CheckResult{{Status: StatusHealthy}, {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy wins", []CheckResult{{Status: StatusDegraded}, {Status: StatusUnhealthy}}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateStatus(tt.results); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "alice_public.pem")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "usb")
	ctx := context.Background()

	if got := DirCheck("keys", dir, false)(ctx); got.Status != StatusHealthy {
		t.Errorf("existing dir: %+v", got)
	}
	if got := DirCheck("keys", file, false)(ctx); got.Status != StatusUnhealthy {
		t.Errorf("file: %+v", got)
	}
	if got := DirCheck("keys", missing, false)(ctx); got.Status != StatusUnhealthy || got.Error == "" {
		t.Errorf("missing required dir: %+v", got)
	}
	if got := DirCheck("usb", missing, true)(ctx); got.Status != StatusDegraded {
		t.Errorf("missing optional dir: %+v", got)
	}
}

func TestConcurrency(t *testing.T) {
	c := NewChecker()
	c.MarkStarted()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.RegisterCheck("keys", healthy)
		}()
		go func() {
			defer wg.Done()
			_ = c.Ready(context.Background())
		}()
	}
	wg.Wait()
}
