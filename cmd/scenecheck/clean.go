package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecheck/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the scenecheck disk cache",
	Long:  "Remove cached chapter findings written by `validate --cache`.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("scenecheck")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if _, err := os.Stat(cache.Dir()); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "cache directory not found")
		return nil
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear %q: %w", cache.Dir(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed cached findings in %s\n", cache.Dir())
	return nil
}
