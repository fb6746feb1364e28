// Package trace records span events for a validation run.
//
// Tracing is enabled from the command line:
//
//	scenecheck validate --trace=- --trace-level=chapter
//
// Events are grouped by scope. Run is the whole invocation, Phase covers the
// manifest load, chapter fan-out and merge, Chapter is one chapter file and
// Check is a single rule applied to one chapter. Each Level admits the scopes
// at or above it.
//
// The tracer travels through the run in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeChapter, path, parentID)
//	defer span.End("")
package trace
