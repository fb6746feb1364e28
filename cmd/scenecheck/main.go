package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scenecheck/internal/logging"
	"scenecheck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "scenecheck",
	Short: "Static checks for visual novel scenario data",
	Long: `scenecheck validates chapter scripts of a visual novel against the asset
manifest: schema, line ids, jump targets, asset references and text fields.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { finishRun() },
}

// exitError carries a process exit code out of a command without printing
// anything: the command has already reported what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Exit codes.
const (
	exitOK       = 0
	exitFindings = 1
	exitFatal    = 2
)

func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cleanCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of findings to show (0=unlimited)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug|info|warn|error|off)")
	rootCmd.PersistentFlags().String("trace", "", "write trace events to a file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|phase|chapter|debug)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to file")
}

// main runs the root command and exits with the status it reports.
// Fatal errors and bad flags exit with status 2.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	finishRun()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(rootCmd.ErrOrStderr(), "scenecheck: error: %v\n", err)
	return exitFatal
}

// setupRun wires the logger, profilers and tracer into the command context.
func setupRun(cmd *cobra.Command, args []string) error {
	levelStr, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	level, ok := logging.ParseLevel(levelStr)
	if !ok {
		return fmt.Errorf("invalid --log-level %q (expected debug|info|warn|error|off)", levelStr)
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Output = cmd.ErrOrStderr()
	cfg.Timestamps = level == logging.DebugLevel
	cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(cfg)))

	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	color.NoColor = !colored

	if err := setupProfiling(cmd); err != nil {
		return err
	}
	return setupTracing(cmd)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the given stream.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f) && os.Getenv("NO_COLOR") == "", nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}
