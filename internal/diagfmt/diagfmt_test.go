package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"scenecheck/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	file := filepath.Join("/home/user/game", "data", "scenarios", "ch01.json")
	bag.Add(diag.NewError(diag.LineDuplicateID, diag.AtLine(file, 1, "l1"), "duplicate line id 'l1'").
		WithNote(diag.AtLine(file, 0, "l1"), "first used here"))
	bag.Add(diag.New(diag.SevWarning, diag.FlowUndefinedJump, diag.AtLine(file, 4, ""), "undefined jump target 'x'"))
	bag.Add(diag.New(diag.SevInfo, diag.FlowUnusedLabel, diag.At(file), "unused label 'start'"))
	return bag
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag := sampleBag()
	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/game/data/scenarios/ch01.json#1(l1)"},
		{"Relative path", PathModeRelative, "data/scenarios/ch01.json#1(l1)"},
		{"Basename only", PathModeBasename, "ch01.json#1(l1)"},
		{"Auto under base", PathModeAuto, "data/scenarios/ch01.json#4:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, bag, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/game"}); err != nil {
				t.Fatalf("Pretty: %v", err)
			}
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR LID3002: duplicate line id 'l1'") {
				t.Errorf("Expected severity, code and message, got:\n%s", output)
			}
			if strings.Contains(output, "note:") {
				t.Errorf("Notes must be hidden unless requested:\n%s", output)
			}
		})
	}
}

// TestPrettyNotesAndSummary проверяет заметки и итоговую строку
func TestPrettyNotesAndSummary(t *testing.T) {
	bag := sampleBag()
	sum := SummaryOf(bag, 2)
	var buf bytes.Buffer
	err := Pretty(&buf, bag, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, Summary: &sum})
	if err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"ch01.json#1(l1): ERROR LID3002: duplicate line id 'l1'",
		"  note: ch01.json#0(l1): first used here",
		"ch01.json#4: WARNING FLW4001: undefined jump target 'x'",
		"ch01.json: INFO FLW4002: unused label 'start'",
		"1 error, 1 warning, 1 info in 2 chapters",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

// TestPrettyCleanRun проверяет вывод без находок
func TestPrettyCleanRun(t *testing.T) {
	sum := Summary{Chapters: 1}
	var buf bytes.Buffer
	if err := Pretty(&buf, diag.NewBag(0), PrettyOpts{Summary: &sum}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if got := buf.String(); got != "ok: 1 chapter checked, no issues found\n" {
		t.Errorf("unexpected output %q", got)
	}
}

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag := sampleBag()
	sum := SummaryOf(bag, 1)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, JSONOpts{PathMode: PathModeBasename, IncludeNotes: true, Summary: &sum}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 3 || len(output.Diagnostics) != 3 {
		t.Fatalf("Expected 3 diagnostics, got count=%d len=%d", output.Count, len(output.Diagnostics))
	}

	first := output.Diagnostics[0]
	if first.Severity != "error" || first.Code != "LID3002" || first.Title != "duplicate line id" {
		t.Errorf("unexpected first diagnostic %+v", first)
	}
	if first.Location.File != "ch01.json" || first.Location.Index == nil || *first.Location.Index != 1 || first.Location.LineID != "l1" {
		t.Errorf("unexpected location %+v", first.Location)
	}
	if len(first.Notes) != 1 || *first.Notes[0].Location.Index != 0 {
		t.Errorf("expected one note at index 0, got %+v", first.Notes)
	}
	if last := output.Diagnostics[2]; last.Location.Index != nil || last.Severity != "info" {
		t.Errorf("chapter-wide finding must omit index: %+v", last)
	}
	if output.Summary == nil || output.Summary.Errors != 1 || output.Summary.Infos != 1 {
		t.Errorf("unexpected summary %+v", output.Summary)
	}
}

// TestJSONIndexZeroIsKept проверяет, что индекс 0 не теряется при omitempty
func TestJSONIndexZeroIsKept(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LineMissingID, diag.AtLine("c.json", 0, ""), "line 0 has no 'id' field"))
	var buf bytes.Buffer
	if err := JSON(&buf, bag, JSONOpts{}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"index": 0`) {
		t.Errorf("expected index 0 in output:\n%s", buf.String())
	}
}

// TestJSONMax проверяет обрезку вывода
func TestJSONMax(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 2})
	if out.Count != 2 || out.Diagnostics[1].Code != "FLW4001" {
		t.Errorf("unexpected truncated output %+v", out)
	}
	if out.Diagnostics[0].Notes != nil {
		t.Errorf("notes must be omitted unless requested")
	}
}

// TestSarif проверяет структуру SARIF 2.1.0
func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolVersion: "0.1.0", BaseDir: "/home/user/game", InvocationArgs: []string{"validate"}}
	if err := Sarif(&buf, sampleBag(), meta); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected envelope %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "scenecheck" || len(run.Tool.Driver.Rules) != len(diag.Codes()) {
		t.Fatalf("unexpected driver %+v", run.Tool.Driver)
	}
	if len(run.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(run.Results))
	}
	levels := []string{run.Results[0].Level, run.Results[1].Level, run.Results[2].Level}
	if strings.Join(levels, ",") != "error,warning,note" {
		t.Errorf("levels = %v", levels)
	}
	for _, r := range run.Results {
		if rule := run.Tool.Driver.Rules[r.RuleIndex]; rule.ID != r.RuleID {
			t.Errorf("ruleIndex %d points at %s, want %s", r.RuleIndex, rule.ID, r.RuleID)
		}
	}
	first := run.Results[0]
	if uri := first.Locations[0].PhysicalLocation.ArtifactLocation.URI; uri != "data/scenarios/ch01.json" {
		t.Errorf("uri = %q", uri)
	}
	if ll := first.Locations[0].LogicalLocations; len(ll) != 1 || ll[0].Name != "l1" {
		t.Errorf("unexpected logical locations %+v", ll)
	}
	if len(first.RelatedLocations) != 1 || first.RelatedLocations[0].Message.Text != "first used here" {
		t.Errorf("unexpected related locations %+v", first.RelatedLocations)
	}
}

func TestRuleName(t *testing.T) {
	if got := ruleName("'lines' must be an array"); got != "LinesMustBeAnArray" {
		t.Errorf("ruleName = %q", got)
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, sampleBag(), "/home/user/game", false); err != nil {
		t.Fatalf("Short: %v", err)
	}
	want := "info FLW4002 data/scenarios/ch01.json unused label 'start'\n" +
		"error LID3002 data/scenarios/ch01.json#1(l1) duplicate line id 'l1'\n" +
		"warning FLW4001 data/scenarios/ch01.json#4 undefined jump target 'x'\n"
	if buf.String() != want {
		t.Errorf("Short output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestParsePathMode(t *testing.T) {
	if m, ok := ParsePathMode("rel"); !ok || m != PathModeRelative {
		t.Errorf("ParsePathMode(rel) = %v, %v", m, ok)
	}
	if _, ok := ParsePathMode("nope"); ok {
		t.Errorf("ParsePathMode accepted an unknown mode")
	}
}
