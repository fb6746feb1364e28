package diag

import "testing"

func TestFormatShortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		NewError(LineDuplicateID, AtLine("/work/data/ch01.json", 1, "l1"), "duplicate line id 'l1'\nsecond").
			WithNote(AtLine("/work/data/ch01.json", 0, "l1"), "first used here"),
		New(SevWarning, FlowUndefinedJump, At("/work/data/ch01.json"), "undefined jump target 'missing'"),
	}

	expected := "warning FLW4001 data/ch01.json undefined jump target 'missing'\n" +
		"note LID3002 data/ch01.json#0(l1) first used here\n" +
		"error LID3002 data/ch01.json#1(l1) duplicate line id 'l1' second"

	if got := FormatShortDiagnostics(diags, "/work", true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestLocationString(t *testing.T) {
	cases := []struct {
		loc  Location
		want string
	}{
		{At("ch.json"), "ch.json"},
		{AtLine("ch.json", 0, ""), "ch.json#0"},
		{AtLine("ch.json", 4, "l5"), "ch.json#4(l5)"},
	}
	for _, tc := range cases {
		if got := tc.loc.String(); got != tc.want {
			t.Fatalf("Location.String() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"info": SevInfo, "WARN": SevWarning, "warning": SevWarning, "Error": SevError} {
		got, err := ParseSeverity(in)
		if err != nil || got != want {
			t.Fatalf("ParseSeverity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}
