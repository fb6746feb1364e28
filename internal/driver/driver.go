// Package driver runs a validation: it loads the manifest once, checks every
// chapter (optionally in parallel and through the disk cache) and merges
// the per-chapter findings into one report in discovery order.
package driver

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/logging"
	"scenecheck/internal/manifest"
	"scenecheck/internal/observ"
	"scenecheck/internal/script"
	"scenecheck/internal/trace"
)

// Options tunes a run. The zero value checks sequentially, without cache,
// progress or logging.
type Options struct {
	Checks check.Options
	// Jobs bounds concurrent chapter checks; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	Cache          *DiskCache
	Progress       ProgressSink
	Logger         logging.Logger
	Timer          *observ.Timer
}

// Request names the inputs of a run.
type Request struct {
	Manifest string
	Chapters []string // checked and reported in this order
	Options  Options
}

// ChapterResult is the outcome of one chapter.
type ChapterResult struct {
	Path        string
	Diagnostics []diag.Diagnostic
	Cached      bool
	LoadFailed  bool
	Elapsed     time.Duration
}

// Result is the merged report of a run.
type Result struct {
	Manifest *manifest.Manifest
	Chapters []ChapterResult
	// Bag holds run-level findings followed by every chapter's findings in
	// request order.
	Bag     *diag.Bag
	Cached  int
	Timings observ.Report
}

// Validate runs a full validation. Only a manifest that cannot be loaded
// and a cancelled context are errors; everything else is a finding.
func Validate(ctx context.Context, req Request) (*Result, error) {
	opts := req.Options
	log := opts.Logger
	if log == nil {
		log = logging.FromContext(ctx)
	}
	timer := opts.Timer
	if timer == nil {
		timer = observ.NewTimer()
	}

	ctx, runSpan := trace.Start(ctx, trace.ScopeRun, "validate")
	runSpan.WithExtra("chapters", strconv.Itoa(len(req.Chapters)))
	defer runSpan.End("")

	m, err := loadManifest(ctx, req.Manifest, timer, log)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Manifest: m,
		Chapters: make([]ChapterResult, len(req.Chapters)),
	}
	for _, path := range req.Chapters {
		opts.emit(Event{File: path, Stage: StageLoad, Status: StatusQueued})
	}

	idx := timer.Begin("chapters")
	phaseCtx, phaseSpan := trace.Start(ctx, trace.ScopePhase, "chapters")
	jobs := resolveJobs(opts.Jobs, len(req.Chapters))
	log.Debug("checking chapters", "count", len(req.Chapters), "jobs", jobs)

	g, gctx := errgroup.WithContext(phaseCtx)
	g.SetLimit(jobs)
	for i, path := range req.Chapters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Индексы уникальны для каждой горутины, мьютекс не нужен.
			res.Chapters[i] = validateChapter(gctx, path, m, opts, log)
			return nil
		})
	}
	err = g.Wait()
	phaseSpan.End("")
	timer.End(idx, fmt.Sprintf("%d chapters, %d jobs", len(req.Chapters), jobs))
	if err != nil {
		return nil, err
	}

	idx = timer.Begin("merge")
	res.Bag = diag.NewBag(opts.MaxDiagnostics)
	res.Bag.AddAll(check.CheckManifest(m))
	for _, cr := range res.Chapters {
		res.Bag.AddAll(cr.Diagnostics)
		if cr.Cached {
			res.Cached++
		}
	}
	timer.End(idx, fmt.Sprintf("%d findings", res.Bag.Len()))
	opts.emit(Event{Stage: StageCheck, Status: StatusDone, Findings: res.Bag.Len()})

	res.Timings = timer.Report()
	return res, nil
}

func loadManifest(ctx context.Context, path string, timer *observ.Timer, log logging.Logger) (*manifest.Manifest, error) {
	idx := timer.Begin("manifest")
	_, span := trace.Start(ctx, trace.ScopePhase, "manifest")
	m, err := manifest.Load(path)
	if err != nil {
		span.End(err.Error())
		timer.End(idx, "failed")
		return nil, err
	}
	note := fmt.Sprintf("%d characters", m.Len(manifest.Characters))
	span.End(note)
	timer.End(idx, note)
	log.Debug("manifest loaded", "path", path, "characters", m.Len(manifest.Characters))
	return m, nil
}

func validateChapter(ctx context.Context, path string, m *manifest.Manifest, opts Options, log logging.Logger) (res ChapterResult) {
	ctx, span := trace.Start(ctx, trace.ScopeChapter, path)
	start := time.Now()
	res = ChapterResult{Path: path}
	defer func() {
		res.Elapsed = time.Since(start)
		span.WithExtra("findings", strconv.Itoa(len(res.Diagnostics)))
		if res.Cached {
			span.WithExtra("cached", "true")
		}
		span.End("")
	}()

	opts.emit(Event{File: path, Stage: StageLoad, Status: StatusWorking})

	// #nosec G304 -- chapter paths come from the user or the project config
	data, err := os.ReadFile(path)
	if err != nil {
		return loadFailure(res, opts, err)
	}

	var key Digest
	if opts.Cache != nil {
		key = CacheKey(path, m.Bytes(), data, opts.Checks)
		payload, ok, err := opts.Cache.Get(key, path)
		switch {
		case err != nil:
			log.Warn("ignoring unreadable cache entry", "chapter", path, "err", err)
		case ok:
			res.Diagnostics = payload.Diagnostics
			res.Cached = true
			opts.emit(doneEvent(path, res, time.Since(start)))
			return res
		}
	}

	doc, err := script.Decode(path, data)
	if err != nil {
		return loadFailure(res, opts, err)
	}

	opts.emit(Event{File: path, Stage: StageCheck, Status: StatusWorking})
	res.Diagnostics = make([]diag.Diagnostic, 0, 8)
	for _, rule := range check.Rules(opts.Checks) {
		_, rs := trace.Start(ctx, trace.ScopeCheck, rule.Name)
		found := rule.Run(doc, m)
		rs.End(strconv.Itoa(len(found)))
		res.Diagnostics = append(res.Diagnostics, found...)
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &CachePayload{Path: path, Diagnostics: res.Diagnostics}); err != nil {
			log.Warn("failed to write cache entry", "chapter", path, "err", err)
		}
	}
	opts.emit(doneEvent(path, res, time.Since(start)))
	return res
}

func loadFailure(res ChapterResult, opts Options, err error) ChapterResult {
	res.LoadFailed = true
	res.Diagnostics = []diag.Diagnostic{
		diag.NewError(diag.IOLoadChapter, diag.At(res.Path), fmt.Sprintf("failed to load chapter: %v", err)),
	}
	opts.emit(Event{File: res.Path, Stage: StageLoad, Status: StatusError, Findings: 1})
	return res
}

func doneEvent(path string, res ChapterResult, elapsed time.Duration) Event {
	status := StatusDone
	for _, d := range res.Diagnostics {
		if d.Severity >= diag.SevError {
			status = StatusError
			break
		}
	}
	return Event{
		File:     path,
		Stage:    StageCheck,
		Status:   status,
		Findings: len(res.Diagnostics),
		Cached:   res.Cached,
		Elapsed:  elapsed,
	}
}

func (o Options) emit(ev Event) {
	if o.Progress != nil {
		o.Progress.OnEvent(ev)
	}
}

func resolveJobs(jobs, chapters int) int {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, chapters))
}
