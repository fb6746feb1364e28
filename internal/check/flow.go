package check

import (
	"fmt"

	"scenecheck/internal/diag"
	"scenecheck/internal/script"
)

type site struct {
	index int
	id    string
}

// Flow is the label/jump view of a chapter. Labels and Jumps are sets:
// repeated declarations or targets collapse to one entry.
type Flow struct {
	Labels Set
	Jumps  Set

	labelSites map[string][]site // every declaration, in line order
	jumpSites  map[string]site   // first jump per target
}

// BuildFlow scans the lines once, collecting non-empty label names and jump
// targets. Other line kinds are ignored.
func BuildFlow(lines []script.Line) Flow {
	f := Flow{
		Labels:     make(Set),
		Jumps:      make(Set),
		labelSites: make(map[string][]site),
		jumpSites:  make(map[string]site),
	}
	for _, line := range lines {
		switch p := line.Payload.(type) {
		case script.Label:
			if p.Name == "" {
				continue
			}
			f.Labels.Add(p.Name)
			f.labelSites[p.Name] = append(f.labelSites[p.Name], site{line.Index, line.ID})
		case script.Jump:
			if p.Target == "" {
				continue
			}
			f.Jumps.Add(p.Target)
			if _, ok := f.jumpSites[p.Target]; !ok {
				f.jumpSites[p.Target] = site{line.Index, line.ID}
			}
		}
	}
	return f
}

// Undefined returns jumps − labels.
func (f Flow) Undefined() Set { return f.Jumps.Minus(f.Labels) }

// Unused returns labels − jumps.
func (f Flow) Unused() Set { return f.Labels.Minus(f.Jumps) }

// CheckJumps reports undefined jump targets as warnings and, when
// reportUnused is set, unused labels as info. Both batches are sorted.
// Reachability is membership only: a label counts as used as soon as any
// jump names it.
func CheckJumps(path string, f Flow, reportUnused bool) []diag.Diagnostic {
	var out diag.List
	for _, target := range f.Undefined().Sorted() {
		s, ok := f.jumpSites[target]
		diag.ReportWarning(&out, diag.FlowUndefinedJump, locate(path, s, ok),
			fmt.Sprintf("undefined jump target '%s'", target)).Emit()
	}
	if !reportUnused {
		return out
	}
	for _, label := range f.Unused().Sorted() {
		sites := f.labelSites[label]
		var s site
		if len(sites) > 0 {
			s = sites[0]
		}
		diag.ReportInfo(&out, diag.FlowUnusedLabel, locate(path, s, len(sites) > 0),
			fmt.Sprintf("unused label '%s'", label)).Emit()
	}
	return out
}

// CheckDuplicateLabels warns once per extra declaration of a label name.
func CheckDuplicateLabels(path string, f Flow) []diag.Diagnostic {
	var out diag.List
	for _, label := range f.Labels.Sorted() {
		sites := f.labelSites[label]
		if len(sites) < 2 {
			continue
		}
		for _, s := range sites[1:] {
			diag.ReportWarning(&out, diag.FlowDuplicateLabel, locate(path, s, true),
				fmt.Sprintf("label '%s' is declared more than once", label)).
				WithNote(locate(path, sites[0], true), "first declared here").
				Emit()
		}
	}
	return out
}

func locate(path string, s site, ok bool) diag.Location {
	if !ok {
		return diag.At(path)
	}
	return diag.AtLine(path, s.index, s.id)
}
