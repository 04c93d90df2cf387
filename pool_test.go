package aterm_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aterm"
)

func TestConfigureAfterUseFails(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	if err := aterm.Configure(aterm.DefaultConfig()); err == nil {
		t.Errorf("Configure after first use succeeded")
	}
}

func TestResetRefusesWithRegisteredThreads(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()

	if err := aterm.Reset(); err == nil {
		t.Errorf("Reset with a registered thread succeeded")
	}
	tp.Close()
	if err := aterm.Reset(); err != nil {
		t.Errorf("Reset after Close failed: %v", err)
	}
}

func TestStatsCounters(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	n1, _ := tp.MakeNumeric(1)
	defer n1.Drop()
	n2, _ := tp.MakeNumeric(1) // hit
	defer n2.Drop()
	n3, _ := tp.MakeNumeric(2)
	defer n3.Drop()

	stats := aterm.Stats()
	if stats.Terms != 2 {
		t.Errorf("Terms = %d, want 2", stats.Terms)
	}
	if stats.Insertions != 2 {
		t.Errorf("Insertions = %d, want 2", stats.Insertions)
	}
	if stats.Hits != 1 {
		t.Errorf("Hits = %d, want 1", stats.Hits)
	}
	if stats.Capacity < stats.Terms {
		t.Errorf("Capacity %d below Terms %d", stats.Capacity, stats.Terms)
	}
}

func TestCapacityGrowth(t *testing.T) {
	mustReset(t)
	if err := aterm.Configure(aterm.Config{
		InitialTableCapacity:  16,
		GCTriggerRatio:        0.75,
		GCEnabled:             false,
		ThreadRegistryInitial: 8,
	}); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	tp := aterm.Register()
	defer tp.Close()

	list := tp.NewProtectedList()
	defer list.Drop()
	for i := 0; i < 200; i++ {
		n, err := tp.MakeNumeric(uint64(i))
		if err != nil {
			t.Fatalf("MakeNumeric(%d) failed: %v", i, err)
		}
		list.Push(n.Borrow())
		n.Drop()
	}
	if got := aterm.PoolSize(); got != 200 {
		t.Fatalf("PoolSize = %d, want 200", got)
	}
	if got := aterm.PoolCapacity(); got < 256 {
		t.Errorf("PoolCapacity = %d, want at least 256 after growth", got)
	}
	// Everything still canonical after rehashes.
	for i := 0; i < 200; i++ {
		n, _ := tp.MakeNumeric(uint64(i))
		if n.Borrow() != list.Get(i) {
			t.Fatalf("numeric %d lost canonicality after growth", i)
		}
		n.Drop()
	}
}

func TestTableShrinksAfterMassiveSweep(t *testing.T) {
	mustReset(t)
	aterm.EnableAutomaticGC(false)
	tp := aterm.Register()
	defer tp.Close()

	for i := 0; i < 100000; i++ {
		n, err := tp.MakeNumeric(uint64(i))
		if err != nil {
			t.Fatalf("MakeNumeric failed: %v", err)
		}
		n.Drop()
	}
	grown := aterm.PoolCapacity()

	tp.CollectNow()
	if got := aterm.PoolSize(); got != 0 {
		t.Fatalf("PoolSize after collect = %d, want 0", got)
	}
	if got := aterm.PoolCapacity(); got >= grown {
		t.Errorf("capacity did not shrink after sweeping everything: %d -> %d", grown, got)
	}
}

func TestGCSummaryMentionsCycles(t *testing.T) {
	mustReset(t)
	tp := aterm.Register()
	defer tp.Close()

	n, _ := tp.MakeNumeric(1)
	n.Drop()
	tp.CollectNow()

	summary := aterm.GCSummary()
	if !strings.Contains(summary, "collections:") {
		t.Errorf("GCSummary = %q, want a collections header", summary)
	}
	if strings.Contains(summary, "none") {
		t.Errorf("GCSummary reports no cycles after CollectNow: %q", summary)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aterm.toml")
	content := `
initial_table_capacity = 4096
gc_trigger_ratio = 0.5
gc_enabled = false
thread_registry_initial = 16
trace_level = "collect"
trace_mode = "ring"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := aterm.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.InitialTableCapacity != 4096 {
		t.Errorf("InitialTableCapacity = %d, want 4096", cfg.InitialTableCapacity)
	}
	if cfg.GCTriggerRatio != 0.5 {
		t.Errorf("GCTriggerRatio = %g, want 0.5", cfg.GCTriggerRatio)
	}
	if cfg.GCEnabled {
		t.Errorf("GCEnabled = true, want false")
	}
	if cfg.ThreadRegistryInitial != 16 {
		t.Errorf("ThreadRegistryInitial = %d, want 16", cfg.ThreadRegistryInitial)
	}
	if cfg.TraceLevel != "collect" || cfg.TraceMode != "ring" {
		t.Errorf("trace settings = (%q, %q), want (collect, ring)", cfg.TraceLevel, cfg.TraceMode)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aterm.toml")
	if err := os.WriteFile(path, []byte("gc_enabld = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := aterm.LoadConfig(path); err == nil {
		t.Errorf("LoadConfig with a misspelled key succeeded")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aterm.toml")
	if err := os.WriteFile(path, []byte("trace_level = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := aterm.LoadConfig(path); err == nil {
		t.Errorf("LoadConfig with an invalid trace level succeeded")
	}
}
