package main

import (
	"github.com/spf13/cobra"

	"aterm"
)

// configurePool builds the pool configuration from --config and the
// trace flags, then freezes it. Must run before the first Register.
func configurePool(cmd *cobra.Command) error {
	cfg := aterm.DefaultConfig()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := aterm.LoadConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level, _ := cmd.Flags().GetString("trace-level"); level != "" {
		cfg.TraceLevel = level
	}
	if out, _ := cmd.Flags().GetString("trace"); out != "" {
		cfg.TraceOutput = out
		if cfg.TraceLevel == "" || cfg.TraceLevel == "off" {
			cfg.TraceLevel = "collect"
		}
	}
	if mode, _ := cmd.Flags().GetString("trace-mode"); mode != "" {
		cfg.TraceMode = mode
	}

	return aterm.Configure(cfg)
}
