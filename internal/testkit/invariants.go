package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"scenecheck/internal/diag"
	"scenecheck/internal/script"
)

// CheckFindings runs a minimal set of invariants on the findings produced
// for one chapter:
// 1) every primary location and note points at doc.Path
// 2) line indices are NoLine or inside the "lines" array
// 3) severity and code agree with the code table
// 4) messages are non-empty
func CheckFindings(doc *script.Document, diags []diag.Diagnostic) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}
	entries := len(doc.Lines) + len(doc.Malformed)
	for i, d := range diags {
		if d.Message == "" {
			return fmt.Errorf("finding %d (%s) has an empty message", i, d.Code.ID())
		}
		if d.Code == diag.UnknownCode {
			return fmt.Errorf("finding %d has no code", i)
		}
		if d.Severity != d.Code.Severity() {
			return fmt.Errorf("finding %d: %s reported as %s, table says %s", i, d.Code.ID(), d.Severity, d.Code.Severity())
		}
		if err := checkLocation(doc.Path, entries, d.Primary); err != nil {
			return fmt.Errorf("finding %d (%s): %w", i, d.Code.ID(), err)
		}
		for _, n := range d.Notes {
			if err := checkLocation(doc.Path, entries, n.Where); err != nil {
				return fmt.Errorf("note of finding %d (%s): %w", i, d.Code.ID(), err)
			}
		}
	}
	return nil
}

func checkLocation(path string, entries int, loc diag.Location) error {
	if loc.File != path {
		return fmt.Errorf("location file %q, want %q", loc.File, path)
	}
	if !loc.HasLine() {
		if loc.Line != diag.NoLine {
			return fmt.Errorf("invalid line index %d", loc.Line)
		}
		return nil
	}
	idx, err := safecast.Conv[uint32](loc.Line)
	if err != nil {
		return fmt.Errorf("line index overflow: %w", err)
	}
	total, err := safecast.Conv[uint32](entries)
	if err != nil {
		return fmt.Errorf("entry count overflow: %w", err)
	}
	if idx >= total {
		return fmt.Errorf("line index %d beyond %d entries", idx, total)
	}
	return nil
}
