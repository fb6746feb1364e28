package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scenecheck/internal/diag"
	"scenecheck/internal/diagfmt"
)

const testManifest = `{
  "characters": {"ann": {"happy": 1}},
  "bg": {"street": 1},
  "bgm": {}, "sfx": {}, "voice": {}
}`

const cleanChapter = `{"schema_version": 1, "id": "c1", "lines": [
  {"id": "a", "type": "show_character", "character": "ann", "expression": "happy"},
  {"id": "b", "type": "change_background", "background": "street"}
]}`

const jumpChapter = `{"schema_version": 1, "id": "c2", "lines": [
  {"id": "a", "type": "jump", "target": "nowhere"}
]}`

// newProject lays out a project with the given chapters and returns the
// config path.
func newProject(t *testing.T, chapters map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"scenecheck.toml": "[paths]\nmanifest = \"manifest.json\"\nchapters = [\"chapters/*.json\"]\n",
		"manifest.json":   testManifest,
	}
	for name, body := range chapters {
		files[filepath.Join("chapters", name)] = body
	}
	for rel, body := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return filepath.Join(root, "scenecheck.toml")
}

// execute runs `validate` with every sticky flag reset, since cobra keeps
// flag values between executions.
func execute(t *testing.T, config string, extra ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	args := []string{
		"validate", "--config", config, "--manifest", "", "--format", "", "--fail-on", "",
		"--ui", "off", "--color", "off", "--log-level", "off", "--quiet=false",
	}
	args = append(args, extra...)
	code := run(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestValidateCleanProject(t *testing.T) {
	config := newProject(t, map[string]string{"ch01.json": cleanChapter})
	code, out, _ := execute(t, config)
	if code != exitOK {
		t.Fatalf("exit code = %d, output:\n%s", code, out)
	}
	if out != "ok: 1 chapter checked, no issues found\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidateFailOnThresholds(t *testing.T) {
	config := newProject(t, map[string]string{"ch01.json": cleanChapter, "ch02.json": jumpChapter})
	tests := []struct {
		failOn string
		want   int
	}{
		{"any", exitFindings},
		{"warning", exitFindings},
		{"error", exitOK},
		{"never", exitOK},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			code, out, _ := execute(t, config, "--fail-on", tt.failOn)
			if code != tt.want {
				t.Fatalf("exit code = %d, want %d\n%s", code, tt.want, out)
			}
			if !strings.Contains(out, "WARNING FLW4001") {
				t.Fatalf("expected the jump warning in output:\n%s", out)
			}
		})
	}
}

func TestValidateJSONReport(t *testing.T) {
	config := newProject(t, map[string]string{"ch02.json": jumpChapter})
	code, out, _ := execute(t, config, "--format", "json", "--jobs", "4")
	if code != exitFindings {
		t.Fatalf("exit code = %d", code)
	}
	var report diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if report.Count != 1 || report.Diagnostics[0].Code != "FLW4001" {
		t.Fatalf("unexpected report %+v", report)
	}
	if loc := report.Diagnostics[0].Location; loc.File != "chapters/ch02.json" || loc.LineID != "a" {
		t.Fatalf("unexpected location %+v", loc)
	}
	if report.Summary == nil || report.Summary.Chapters != 1 || report.Summary.Warnings != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
}

func TestValidateSarifExecutionSuccessful(t *testing.T) {
	config := newProject(t, map[string]string{"ch02.json": jumpChapter})
	code, out, _ := execute(t, config, "--format", "sarif", "--fail-on", "warning")
	if code != exitFindings {
		t.Fatalf("exit code = %d, want %d", code, exitFindings)
	}
	var log struct {
		Runs []struct {
			Invocations []struct {
				ExecutionSuccessful bool `json:"executionSuccessful"`
			} `json:"invocations"`
			Results []json.RawMessage `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal([]byte(out), &log); err != nil {
		t.Fatalf("invalid SARIF: %v\n%s", err, out)
	}
	if len(log.Runs) != 1 || len(log.Runs[0].Invocations) != 1 || len(log.Runs[0].Results) != 1 {
		t.Fatalf("unexpected SARIF shape:\n%s", out)
	}
	if !log.Runs[0].Invocations[0].ExecutionSuccessful {
		t.Fatalf("findings over the threshold must not mark execution unsuccessful")
	}
}

func TestValidateExplicitPaths(t *testing.T) {
	config := newProject(t, map[string]string{"ch01.json": cleanChapter, "ch02.json": jumpChapter})
	clean := filepath.Join(filepath.Dir(config), "chapters", "ch01.json")
	code, out, _ := execute(t, config, "--format", "short", clean)
	if code != exitOK || out != "" {
		t.Fatalf("only the clean chapter must be checked: code=%d out=%q", code, out)
	}
}

func TestValidateFatalErrors(t *testing.T) {
	config := newProject(t, map[string]string{"ch01.json": cleanChapter})

	code, _, errOut := execute(t, config, "--manifest", filepath.Join(t.TempDir(), "nope.json"))
	if code != exitFatal || !strings.Contains(errOut, "scenecheck: error:") {
		t.Fatalf("missing manifest: code=%d stderr=%q", code, errOut)
	}

	nullManifest := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(nullManifest, []byte("null"), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	code, _, errOut = execute(t, config, "--manifest", nullManifest)
	if code != exitFatal || !strings.Contains(errOut, "not a JSON object") {
		t.Fatalf("null manifest: code=%d stderr=%q", code, errOut)
	}

	code, _, errOut = execute(t, config, "--format", "xml")
	if code != exitFatal || !strings.Contains(errOut, "output.format") {
		t.Fatalf("bad format: code=%d stderr=%q", code, errOut)
	}
}

func TestValidateEmptyChapterSetWarns(t *testing.T) {
	config := newProject(t, nil)
	code, out, errOut := execute(t, config)
	if code != exitOK || out != "" {
		t.Fatalf("code=%d out=%q", code, out)
	}
	if !strings.Contains(errOut, "no chapter files found") {
		t.Fatalf("expected a warning on stderr, got %q", errOut)
	}
}

func TestFailOnMet(t *testing.T) {
	info := diag.NewBag(0)
	info.Add(diag.New(diag.SevInfo, diag.FlowUnusedLabel, diag.At("c.json"), "unused label 'x'"))
	tests := []struct {
		failOn string
		want   bool
	}{
		{"any", true},
		{"info", true},
		{"warning", false},
		{"error", false},
		{"never", false},
		{"", true},
		{"WARN", false},
	}
	for _, tt := range tests {
		if got := failOnMet(info, tt.failOn); got != tt.want {
			t.Errorf("failOnMet(info bag, %q) = %v, want %v", tt.failOn, got, tt.want)
		}
	}
	if failOnMet(diag.NewBag(0), "any") {
		t.Errorf("an empty bag must never fail the run")
	}

	warn := diag.NewBag(0)
	warn.Add(diag.New(diag.SevWarning, diag.FlowUndefinedJump, diag.At("c.json"), "undefined jump target 'x'"))
	for failOn, want := range map[string]bool{"warning": true, "warn": true, "error": false} {
		if got := failOnMet(warn, failOn); got != want {
			t.Errorf("failOnMet(warning bag, %q) = %v, want %v", failOn, got, want)
		}
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("maybe"); err == nil {
		t.Errorf("expected an error for an unknown mode")
	}
	if shouldUseTUI(uiModeOff, false) || !shouldUseTUI(uiModeOn, true) {
		t.Errorf("explicit modes must win over detection")
	}
}

func TestRenderCodes(t *testing.T) {
	var buf bytes.Buffer
	if err := renderCodes(&buf, false); err != nil {
		t.Fatalf("renderCodes: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != len(diag.Codes()) {
		t.Fatalf("expected one line per code, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "IO1001") || !strings.Contains(lines[0], "error") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
}
