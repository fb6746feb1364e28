package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scenecheck/internal/trace"
)

var traceCleanup func()

// setupTracing inspects trace-related flags and attaches a tracer to the
// command context. The tracer is flushed and closed by finishRun.
func setupTracing(cmd *cobra.Command) error {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}

	// --trace без уровня включает трассировку по главам
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelChapter
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	tracer, err := trace.New(trace.Config{Level: level, OutputPath: traceOutput})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	traceCleanup = func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return nil
}

// finishRun stops the profilers and closes the tracer. PersistentPostRun is
// skipped when a command fails, so run calls it as well; the second call is
// a no-op.
func finishRun() {
	if profSession != nil {
		if err := profSession.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		}
		profSession = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}
