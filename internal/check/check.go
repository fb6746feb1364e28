// Package check holds the chapter validation rules. Every function here is a
// pure function of its inputs: no IO, no shared mutable state, and the
// manifest is only read. Independent chapters may therefore be checked
// concurrently against one shared Manifest.
package check

import (
	"scenecheck/internal/diag"
	"scenecheck/internal/manifest"
	"scenecheck/internal/script"
)

// Options toggles the optional rules. The zero value disables them all;
// DefaultOptions matches the command-line defaults.
type Options struct {
	UnusedLabels    bool // report labels no jump names (info)
	DuplicateLabels bool // report repeated label declarations (warning)
	LanguageTags    bool // require BCP 47 keys in localized text (warning)
}

func DefaultOptions() Options {
	return Options{UnusedLabels: true, DuplicateLabels: true}
}

// Rule is one named check over a chapter.
type Rule struct {
	Name string
	Run  func(doc *script.Document, m *manifest.Manifest) []diag.Diagnostic
}

// Rules returns the enabled rules in report order: schema, line ids, jumps,
// assets, text.
func Rules(opts Options) []Rule {
	return []Rule{
		{"schema", func(doc *script.Document, _ *manifest.Manifest) []diag.Diagnostic {
			return CheckSchema(doc)
		}},
		{"line-ids", func(doc *script.Document, _ *manifest.Manifest) []diag.Diagnostic {
			return CheckLineIDs(doc)
		}},
		{"jumps", func(doc *script.Document, _ *manifest.Manifest) []diag.Diagnostic {
			flow := BuildFlow(doc.Lines)
			out := CheckJumps(doc.Path, flow, opts.UnusedLabels)
			if opts.DuplicateLabels {
				out = append(out, CheckDuplicateLabels(doc.Path, flow)...)
			}
			return out
		}},
		{"assets", func(doc *script.Document, m *manifest.Manifest) []diag.Diagnostic {
			return CheckAssets(doc.Path, CollectAssets(doc.Lines), m)
		}},
		{"text", func(doc *script.Document, _ *manifest.Manifest) []diag.Diagnostic {
			return CheckText(doc.Path, doc.Lines, opts.LanguageTags)
		}},
	}
}

// Chapter runs every rule over one document and concatenates the findings
// in rule order. No rule is skipped because another one reported.
func Chapter(doc *script.Document, m *manifest.Manifest, opts Options) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, 8)
	for _, r := range Rules(opts) {
		out = append(out, r.Run(doc, m)...)
	}
	return out
}
