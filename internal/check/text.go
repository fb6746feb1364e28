package check

import (
	"fmt"

	"golang.org/x/text/language"

	"scenecheck/internal/diag"
	"scenecheck/internal/script"
)

// CheckText validates the optional "text" field of every line: a plain
// string, or a non-empty mapping of language code to string.
func CheckText(path string, lines []script.Line, checkTags bool) []diag.Diagnostic {
	var out diag.List
	for _, line := range lines {
		t := line.Text
		if t == nil {
			continue
		}
		where := diag.AtLine(path, line.Index, line.ID)
		switch t.Shape {
		case script.TextPlain:
			// ok
		case script.TextLocalized:
			if len(t.Localized) == 0 {
				diag.ReportWarning(&out, diag.TextEmptyLocalization, where,
					fmt.Sprintf("line %d (id: %s): text mapping is empty", line.Index, line.ID)).Emit()
				continue
			}
			for _, lang := range t.Languages() {
				if !t.IsStringValue(lang) {
					diag.ReportWarning(&out, diag.TextInvalidEntry, where,
						fmt.Sprintf("line %d (id: %s): text for '%s' must be a string", line.Index, line.ID, lang)).Emit()
				}
				if checkTags {
					if _, err := language.Parse(lang); err != nil {
						diag.ReportWarning(&out, diag.TextBadLanguageTag, where,
							fmt.Sprintf("line %d (id: %s): '%s' is not a valid language tag", line.Index, line.ID, lang)).Emit()
					}
				}
			}
		default:
			diag.ReportError(&out, diag.TextInvalidType, where,
				fmt.Sprintf("line %d (id: %s): text field must be string or mapping", line.Index, line.ID)).Emit()
		}
	}
	return out
}
