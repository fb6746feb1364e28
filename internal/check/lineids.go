package check

import (
	"fmt"

	"scenecheck/internal/diag"
	"scenecheck/internal/script"
)

// CheckLineIDs flags lines without an id and every repeat of an id after its
// first occurrence. The seen set lives only for this call.
func CheckLineIDs(doc *script.Document) []diag.Diagnostic {
	var out diag.List
	first := make(map[string]int, len(doc.Lines))
	for _, line := range doc.Lines {
		if !line.HasID {
			diag.ReportError(&out, diag.LineMissingID, diag.AtLine(doc.Path, line.Index, ""),
				fmt.Sprintf("line %d has no 'id' field", line.Index)).Emit()
			continue
		}
		if prev, dup := first[line.ID]; dup {
			diag.ReportError(&out, diag.LineDuplicateID, diag.AtLine(doc.Path, line.Index, line.ID),
				fmt.Sprintf("duplicate line id '%s'", line.ID)).
				WithNote(diag.AtLine(doc.Path, prev, line.ID), "first used here").
				Emit()
			continue
		}
		first[line.ID] = line.Index
	}
	return out
}
