package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scenecheck/internal/prof"
)

var profSession *prof.Session

// setupProfiling starts the profilers requested by the persistent flags.
// They are stopped by finishRun.
func setupProfiling(cmd *cobra.Command) error {
	root := cmd.Root()

	var (
		cfg prof.Config
		err error
	)
	if cfg.CPUProfile, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if cfg.MemProfile, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cfg.RuntimeTrace, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !cfg.Enabled() {
		return nil
	}
	profSession, err = prof.Start(cfg)
	return err
}
