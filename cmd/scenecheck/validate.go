package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/diagfmt"
	"scenecheck/internal/driver"
	"scenecheck/internal/logging"
	"scenecheck/internal/observ"
	"scenecheck/internal/project"
	"scenecheck/internal/version"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] [chapter.json|directory...]",
	Short: "Validate chapter scripts against the asset manifest",
	Long: `Validate chapter scripts against the asset manifest. Without arguments the
chapters are taken from the globs in scenecheck.toml (or data/scenarios/*.json).
Directories are searched recursively for *.json files.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("manifest", "", "asset manifest path (overrides config)")
	validateCmd.Flags().String("config", "", "path to scenecheck.toml (default: search upwards)")
	validateCmd.Flags().String("format", "", "output format (pretty|short|json|sarif)")
	validateCmd.Flags().Int("jobs", 1, "max parallel chapter checks (0=auto)")
	validateCmd.Flags().String("fail-on", "", "lowest severity that fails the run (any|warning|error|never)")
	validateCmd.Flags().Bool("no-unused-labels", false, "do not report unused labels")
	validateCmd.Flags().Bool("no-duplicate-labels", false, "do not report labels declared twice")
	validateCmd.Flags().Bool("language-tags", false, "require BCP 47 keys in localized text")
	validateCmd.Flags().Bool("cache", false, "reuse findings of unchanged chapters from the disk cache")
	validateCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	validateCmd.Flags().Bool("with-notes", false, "include notes in output")
	validateCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// validateFlags is the parsed command line of `validate`.
type validateFlags struct {
	manifest        string
	config          string
	format          string
	failOn          string
	jobs            int
	jobsSet         bool
	noUnusedLabels  bool
	noDupLabels     bool
	languageTags    bool
	languageTagsSet bool
	cache           bool
	ui              uiMode
	withNotes       bool
	fullPath        bool
	quiet           bool
	timings         bool
	maxDiagnostics  int
}

func readValidateFlags(cmd *cobra.Command) (validateFlags, error) {
	var (
		f   validateFlags
		err error
	)
	fl := cmd.Flags()
	if f.manifest, err = fl.GetString("manifest"); err != nil {
		return f, fmt.Errorf("failed to get manifest flag: %w", err)
	}
	if f.config, err = fl.GetString("config"); err != nil {
		return f, fmt.Errorf("failed to get config flag: %w", err)
	}
	if f.format, err = fl.GetString("format"); err != nil {
		return f, fmt.Errorf("failed to get format flag: %w", err)
	}
	if f.failOn, err = fl.GetString("fail-on"); err != nil {
		return f, fmt.Errorf("failed to get fail-on flag: %w", err)
	}
	if f.jobs, err = fl.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	f.jobsSet = fl.Changed("jobs")
	if f.noUnusedLabels, err = fl.GetBool("no-unused-labels"); err != nil {
		return f, fmt.Errorf("failed to get no-unused-labels flag: %w", err)
	}
	if f.noDupLabels, err = fl.GetBool("no-duplicate-labels"); err != nil {
		return f, fmt.Errorf("failed to get no-duplicate-labels flag: %w", err)
	}
	if f.languageTags, err = fl.GetBool("language-tags"); err != nil {
		return f, fmt.Errorf("failed to get language-tags flag: %w", err)
	}
	f.languageTagsSet = fl.Changed("language-tags")
	if f.cache, err = fl.GetBool("cache"); err != nil {
		return f, fmt.Errorf("failed to get cache flag: %w", err)
	}
	uiStr, err := fl.GetString("ui")
	if err != nil {
		return f, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if f.ui, err = readUIMode(uiStr); err != nil {
		return f, err
	}
	if f.withNotes, err = fl.GetBool("with-notes"); err != nil {
		return f, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if f.fullPath, err = fl.GetBool("fullpath"); err != nil {
		return f, fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	pf := cmd.Root().PersistentFlags()
	if f.quiet, err = pf.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.timings, err = pf.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return f, nil
}

// apply overlays command-line flags on the loaded configuration.
func (f validateFlags) apply(cfg *project.Config, cwd string) error {
	if f.manifest != "" {
		p := f.manifest
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		cfg.Paths.Manifest = p
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.failOn != "" {
		cfg.Output.FailOn = f.failOn
	}
	if f.jobsSet {
		cfg.Output.Jobs = f.jobs
	}
	if f.noUnusedLabels {
		cfg.Checks.UnusedLabels = false
	}
	if f.noDupLabels {
		cfg.Checks.DuplicateLabels = false
	}
	if f.languageTagsSet {
		cfg.Checks.LanguageTags = f.languageTags
	}
	return cfg.Validate()
}

func checkOptions(cfg *project.Config) check.Options {
	return check.Options{
		UnusedLabels:    cfg.Checks.UnusedLabels,
		DuplicateLabels: cfg.Checks.DuplicateLabels,
		LanguageTags:    cfg.Checks.LanguageTags,
	}
}

// runValidate executes `validate`: it resolves the configuration and the
// chapter set, runs the driver and renders the report. The run fails with
// exit status 1 when the fail-on threshold is met.
func runValidate(cmd *cobra.Command, args []string) error {
	flags, err := readValidateFlags(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := project.Resolve(flags.config, cwd)
	if err != nil {
		return err
	}
	if err := flags.apply(cfg, cwd); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if cfg.File != "" {
		log.Debug("using config", "path", cfg.File)
	}

	var chapters []string
	if len(args) > 0 {
		chapters, err = cfg.ExpandPaths(args)
	} else {
		chapters, err = cfg.Chapters()
	}
	if err != nil {
		return fmt.Errorf("failed to discover chapters: %w", err)
	}
	if len(chapters) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no chapter files found, nothing to validate")
		return nil
	}

	timer := observ.NewTimer()
	req := driver.Request{
		Manifest: cfg.ManifestPath(),
		Chapters: chapters,
		Options: driver.Options{
			Checks:         checkOptions(cfg),
			Jobs:           cfg.Output.Jobs,
			MaxDiagnostics: flags.maxDiagnostics,
			Logger:         log,
			Timer:          timer,
		},
	}
	if flags.cache {
		cache, err := driver.OpenDiskCache("scenecheck")
		if err != nil {
			log.Warn("disk cache disabled", "err", err)
		} else {
			req.Options.Cache = cache
		}
	}

	var res *driver.Result
	if shouldUseTUI(flags.ui, flags.quiet) {
		res, err = runValidateWithUI(ctx, "validate", req)
	} else {
		res, err = driver.Validate(ctx, req)
	}
	if err != nil {
		return err
	}

	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}
	if err := renderReport(cmd.OutOrStdout(), res, reportOpts{
		format:    cfg.Output.Format,
		baseDir:   cfg.Root,
		fullPath:  flags.fullPath,
		withNotes: flags.withNotes,
		quiet:     flags.quiet,
		color:     colored,
		args:      os.Args[1:],
	}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if flags.timings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}

	if failOnMet(res.Bag, cfg.Output.FailOn) {
		return &exitError{code: exitFindings}
	}
	return nil
}

type reportOpts struct {
	format    string
	baseDir   string
	fullPath  bool
	withNotes bool
	quiet     bool
	color     bool
	args      []string
}

func renderReport(w io.Writer, res *driver.Result, opts reportOpts) error {
	pathMode := diagfmt.PathModeAuto
	if opts.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	summary := diagfmt.SummaryOf(res.Bag, len(res.Chapters))
	summary.Cached = res.Cached

	switch opts.format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     opts.color,
			PathMode:  pathMode,
			BaseDir:   opts.baseDir,
			ShowNotes: opts.withNotes,
		}
		if !opts.quiet {
			prettyOpts.Summary = &summary
		}
		return diagfmt.Pretty(w, res.Bag, prettyOpts)
	case "short":
		baseDir := opts.baseDir
		if opts.fullPath {
			baseDir = ""
		}
		return diagfmt.Short(w, res.Bag, baseDir, opts.withNotes)
	case "json":
		return diagfmt.JSON(w, res.Bag, diagfmt.JSONOpts{
			PathMode:     pathMode,
			BaseDir:      opts.baseDir,
			IncludeNotes: opts.withNotes,
			Summary:      &summary,
		})
	case "sarif":
		return diagfmt.Sarif(w, res.Bag, diagfmt.SarifRunMeta{
			ToolName:       "scenecheck",
			ToolVersion:    version.Version,
			InvocationArgs: opts.args,
			BaseDir:        opts.baseDir,
			// fatal runs never get here; findings do not make execution unsuccessful
			Successful: true,
		})
	default:
		return fmt.Errorf("unknown format: %s", opts.format)
	}
}

// failOnMet reports whether the findings reach the fail_on threshold.
// "any" is an alias for "info"; "never" disables the threshold.
func failOnMet(bag *diag.Bag, failOn string) bool {
	if bag == nil || failOn == "never" {
		return false
	}
	if failOn == "any" || failOn == "" {
		failOn = "info"
	}
	threshold, err := diag.ParseSeverity(failOn)
	if err != nil {
		threshold = diag.SevInfo
	}
	return bag.HasAtLeast(threshold)
}
