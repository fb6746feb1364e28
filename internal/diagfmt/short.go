package diagfmt

import (
	"io"

	"scenecheck/internal/diag"
)

// Short writes one line per diagnostic (see diag.FormatShortDiagnostics).
func Short(w io.Writer, bag *diag.Bag, baseDir string, includeNotes bool) error {
	out := diag.FormatShortDiagnostics(bag.Items(), baseDir, includeNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
