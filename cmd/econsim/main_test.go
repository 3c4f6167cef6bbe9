package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/mini-economy/internal/engine"
)

func testWorld(t *testing.T) *engine.World {
	t.Helper()
	w, seed, err := buildWorld(&options{seed: 11})
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	if seed != 11 {
		t.Fatalf("seed = %d, want 11", seed)
	}
	return w
}

func TestInteractiveQuits(t *testing.T) {
	w := testWorld(t)
	var out strings.Builder
	if err := interactive(w, strings.NewReader("\n\nq\n\n"), &out); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if w.Day != 3 {
		t.Errorf("day = %d, want 3", w.Day)
	}
	if got := strings.Count(out.String(), "=== Day"); got != 3 {
		t.Errorf("reports = %d, want 3", got)
	}
}

func TestInteractiveStopsAtEOF(t *testing.T) {
	w := testWorld(t)
	var out strings.Builder
	if err := interactive(w, strings.NewReader(""), &out); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if w.Day != 1 {
		t.Errorf("day = %d, want 1", w.Day)
	}
}

func TestBatchReportsAndRecords(t *testing.T) {
	w := testWorld(t)
	var out strings.Builder
	var recorded []uint64
	record := func(snap engine.Snapshot) error {
		recorded = append(recorded, snap.Day)
		return nil
	}
	if err := batch(w, 12, 5, &out, record); err != nil {
		t.Fatalf("batch: %v", err)
	}

	for _, want := range []string{"=== Day 5 ===", "=== Day 10 ===", "=== Day 12 ==="} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
	if got := strings.Count(out.String(), "=== Day"); got != 3 {
		t.Errorf("reports = %d, want 3", got)
	}
	if len(recorded) != 12 || recorded[11] != 12 {
		t.Errorf("recorded = %v", recorded)
	}
}

func TestBatchWithLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	db, runID, err := openLedger(path, 11)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer db.Close()

	w := testWorld(t)
	var out strings.Builder
	record := func(snap engine.Snapshot) error { return db.RecordDay(runID, snap) }
	if err := batch(w, 4, 0, &out, record); err != nil {
		t.Fatalf("batch: %v", err)
	}

	days, err := db.DayHistory(runID, 10)
	if err != nil {
		t.Fatalf("day history: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("days = %d, want 4", len(days))
	}
	last, err := db.GetMeta("last_run")
	if err != nil || last != runID {
		t.Fatalf("last_run = %q, %v", last, err)
	}
}

func TestSetupLogging(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "WARN", "error"} {
		if err := setupLogging(lvl); err != nil {
			t.Errorf("setupLogging(%q): %v", lvl, err)
		}
	}
	if err := setupLogging("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("ECONSIM_TEST_PORT", "9090")
	t.Setenv("ECONSIM_TEST_BAD", "nine")
	if got := envIntOrDefault("ECONSIM_TEST_PORT", 1); got != 9090 {
		t.Errorf("port = %d", got)
	}
	if got := envIntOrDefault("ECONSIM_TEST_BAD", 1); got != 1 {
		t.Errorf("bad int = %d, want default", got)
	}
	if got := envOrDefault("ECONSIM_TEST_UNSET", "x"); got != "x" {
		t.Errorf("unset = %q", got)
	}
}

func TestBuildWorldRejectsMissingScenario(t *testing.T) {
	if _, _, err := buildWorld(&options{scenario: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("expected error for missing scenario file")
	}
}
