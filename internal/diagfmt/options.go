package diagfmt

import (
	"path/filepath"
	"strings"

	"scenecheck/internal/diag"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths under BaseDir relative to it and leaves the rest alone.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode maps a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
	Summary   *Summary // печатается после диагностик, если задан
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
	Summary      *Summary
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
	BaseDir        string
	// Successful is SARIF executionSuccessful: the tool finished its run.
	// It stays true when findings met the fail-on threshold.
	Successful bool
}

// Summary is the run-level tally printed after the findings.
type Summary struct {
	Chapters int `json:"chapters"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Dropped  int `json:"dropped,omitempty"`
	Cached   int `json:"cached,omitempty"`
}

// SummaryOf counts the bag's findings by severity, dropped ones included.
func SummaryOf(bag *diag.Bag, chapters int) Summary {
	s := Summary{Chapters: chapters}
	if bag == nil {
		return s
	}
	s.Errors = bag.Count(diag.SevError)
	s.Warnings = bag.Count(diag.SevWarning)
	s.Infos = bag.Count(diag.SevInfo)
	s.Dropped = bag.Dropped()
	return s
}

func formatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	case PathModeBasename:
		path = filepath.Base(path)
	case PathModeRelative:
		path = relativeTo(path, baseDir, true)
	case PathModeAuto:
		path = relativeTo(path, baseDir, false)
	}
	return filepath.ToSlash(path)
}

// relativeTo rewrites path relative to baseDir. Without force, paths that
// would escape baseDir are returned unchanged.
func relativeTo(path, baseDir string, force bool) string {
	if baseDir == "" {
		return path
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return path
	}
	if !force && (rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return path
	}
	return rel
}

func formatLocation(loc diag.Location, mode PathMode, baseDir string) string {
	loc.File = formatPath(loc.File, mode, baseDir)
	return loc.String()
}
