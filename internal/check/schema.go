package check

import (
	"fmt"

	"scenecheck/internal/diag"
	"scenecheck/internal/script"
)

// CheckSchema reports each missing required top-level field independently,
// plus a non-array "lines" and every "lines" entry that is not an object.
func CheckSchema(doc *script.Document) []diag.Diagnostic {
	var out diag.List
	for _, field := range script.RequiredFields {
		if doc.Has(field) {
			continue
		}
		diag.ReportError(&out, diag.SchMissingField, diag.At(doc.Path),
			fmt.Sprintf("'%s' field is missing", field)).Emit()
	}
	if doc.LinesNotArray {
		diag.ReportError(&out, diag.SchLinesNotArray, diag.At(doc.Path),
			"'lines' must be an array").Emit()
	}
	for _, idx := range doc.Malformed {
		diag.ReportError(&out, diag.SchLineNotObject, diag.AtLine(doc.Path, idx, ""),
			fmt.Sprintf("line %d is not an object", idx)).Emit()
	}
	return out
}
