package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"scenecheck/internal/diag"
)

type palette struct {
	sev  [diag.SevError + 1]*color.Color
	code *color.Color
	loc  *color.Color
	note *color.Color
	ok   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: [diag.SevError + 1]*color.Color{
			diag.SevInfo:    color.New(color.FgCyan),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevError:   color.New(color.FgRed, color.Bold),
		},
		code: color.New(color.Faint),
		loc:  color.New(color.Bold),
		note: color.New(color.FgBlue),
		ok:   color.New(color.FgGreen, color.Bold),
	}
	all := append(p.sev[:], p.code, p.loc, p.note, p.ok)
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if s > diag.SevError {
		return p.code
	}
	return p.sev[s]
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() в порядке добавления (порядок задаёт driver).
// Для каждого diag печатает:
//
//	<path>#<idx>(<id>): <SEV> <CODE>: <Message>
//
// затем Notes с отступом и, если задан opts.Summary, итоговую строку.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		_, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(formatLocation(d.Primary, opts.PathMode, opts.BaseDir)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message,
		)
		if err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s: %s\n",
				p.note.Sprint("note:"),
				formatLocation(n.Where, opts.PathMode, opts.BaseDir),
				n.Msg,
			); err != nil {
				return err
			}
		}
	}
	if opts.Summary != nil {
		return writeSummary(w, p, *opts.Summary)
	}
	return nil
}

func writeSummary(w io.Writer, p palette, s Summary) error {
	if s.Errors+s.Warnings+s.Infos == 0 {
		_, err := fmt.Fprintf(w, "%s %s checked, no issues found\n", p.ok.Sprint("ok:"), plural(s.Chapters, "chapter"))
		return err
	}
	line := fmt.Sprintf("%s, %s, %d info in %s",
		p.sev[diag.SevError].Sprint(plural(s.Errors, "error")),
		p.sev[diag.SevWarning].Sprint(plural(s.Warnings, "warning")),
		s.Infos,
		plural(s.Chapters, "chapter"),
	)
	if s.Dropped > 0 {
		line += fmt.Sprintf(" (%d not shown)", s.Dropped)
	}
	if s.Cached > 0 {
		line += fmt.Sprintf(" [%d cached]", s.Cached)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
