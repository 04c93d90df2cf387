package aterm

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config controls pool sizing, automatic collection and tracing.
// All fields have working defaults; see DefaultConfig.
type Config struct {
	// InitialTableCapacity is the starting slot count of the term table.
	// Rounded up to a power of two.
	InitialTableCapacity uint `toml:"initial_table_capacity"`

	// GCTriggerRatio scales how many fresh insertions are allowed between
	// automatic collections, as a fraction of the live term count.
	GCTriggerRatio float64 `toml:"gc_trigger_ratio"`

	// GCEnabled enables automatic collection. Explicit CollectNow calls
	// work regardless.
	GCEnabled bool `toml:"gc_enabled"`

	// ThreadRegistryInitial is the starting slot count of each thread's
	// protection registry.
	ThreadRegistryInitial uint `toml:"thread_registry_initial"`

	// TraceLevel selects tracing verbosity (off|collect|thread|debug).
	TraceLevel string `toml:"trace_level"`

	// TraceOutput is the trace destination path ("-" or "" for stderr,
	// only used when TraceLevel is not off).
	TraceOutput string `toml:"trace_output"`

	// TraceMode selects event storage (stream|ring|both).
	TraceMode string `toml:"trace_mode"`
}

// DefaultConfig returns the configuration used when Configure is never called.
func DefaultConfig() Config {
	return Config{
		InitialTableCapacity:  1 << 10,
		GCTriggerRatio:        0.75,
		GCEnabled:             true,
		ThreadRegistryInitial: 64,
		TraceLevel:            "off",
	}
}

// LoadConfig reads a pool configuration from a TOML file. Keys that are
// not recognized are reported as an error so typos do not silently fall
// back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load pool config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load pool config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("load pool config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GCTriggerRatio < 0 {
		return fmt.Errorf("gc_trigger_ratio must be non-negative, got %g", c.GCTriggerRatio)
	}
	if c.TraceLevel != "" {
		if _, err := parseTraceLevel(c.TraceLevel); err != nil {
			return err
		}
	}
	if c.TraceMode != "" {
		if _, err := parseTraceMode(c.TraceMode); err != nil {
			return err
		}
	}
	return nil
}
