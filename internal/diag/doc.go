// Package diag defines the finding model shared by every validation check.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for the problems found in a
//     chapter document or in the asset manifest.
//   - Offer light-weight utilities (Reporter, Bag, List) that let checks emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does not perform any formatting beyond the single-line short
// form, IO, or CLI integration. Rendering lives in internal/diagfmt, loading
// and aggregation in internal/driver.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: tri-level enum (Info, Warning, Error). A check always emits
//     the same severity for a given code; nothing downstream promotes or
//     demotes it.
//   - Code: compact numeric identifier (see codes.go) with a stable string
//     form such as FLW4001.
//   - Message: human oriented text naming the offending key or id.
//   - Primary: the Location: chapter file plus, when relevant, the 0-based
//     index and id of the line.
//   - Notes: optional secondary locations, e.g. the first occurrence of a
//     duplicated line id.
//
// # Emitting diagnostics
//
// Checks construct a ReportBuilder via ReportError/ReportWarning/ReportInfo,
// optionally chain WithNote, and call Emit. A *List collects the result in
// emission order; the driver copies each list into a Bag, which applies the
// --max limit while still counting dropped findings.
package diag
