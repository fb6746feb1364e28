package driver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/manifest"
	"scenecheck/internal/observ"
)

const testManifest = `{
  "characters": {"ann": {"happy": 1}},
  "bg": {"street": 1},
  "bgm": {}, "sfx": {}, "voice": {}
}`

type fixture struct {
	dir      string
	manifest string
	chapters []string
}

func newFixture(t *testing.T, manifestJSON string, chapters map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, manifest: filepath.Join(dir, "manifest.json")}
	if err := os.WriteFile(f.manifest, []byte(manifestJSON), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	for _, name := range slices.Sorted(maps.Keys(chapters)) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(chapters[name]), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		f.chapters = append(f.chapters, path)
	}
	return f
}

func chapterJSON(lines string) string {
	return `{"schema_version": 1, "id": "c", "lines": [` + lines + `]}`
}

func manyChapters(n int) map[string]string {
	out := make(map[string]string, n)
	for i := range n {
		out[fmt.Sprintf("ch%02d.json", i)] = chapterJSON(fmt.Sprintf(`
			{"id": "a", "type": "jump", "target": "t%d"},
			{"id": "a", "type": "show_character", "character": "ann", "expression": "e%d"},
			{"type": "change_background", "background": "street"}`, i, i))
	}
	return out
}

func render(res *Result) string {
	return diag.FormatShortDiagnostics(res.Bag.Items(), "", true)
}

func TestValidateJobsProduceIdenticalReports(t *testing.T) {
	f := newFixture(t, testManifest, manyChapters(12))

	seq, err := Validate(context.Background(), Request{Manifest: f.manifest, Chapters: f.chapters, Options: Options{Jobs: 1, Checks: check.DefaultOptions()}})
	if err != nil {
		t.Fatalf("Validate jobs=1: %v", err)
	}
	par, err := Validate(context.Background(), Request{Manifest: f.manifest, Chapters: f.chapters, Options: Options{Jobs: 8, Checks: check.DefaultOptions()}})
	if err != nil {
		t.Fatalf("Validate jobs=8: %v", err)
	}

	if seq.Bag.Len() != 12*4 {
		t.Fatalf("expected 4 findings per chapter, got %d:\n%s", seq.Bag.Len(), render(seq))
	}
	// Raw bag order, not just the sorted rendering, must match.
	a, b := seq.Bag.Items(), par.Bag.Items()
	for i := range a {
		if a[i].Primary != b[i].Primary || a[i].Code != b[i].Code || a[i].Message != b[i].Message {
			t.Fatalf("item %d differs: %v vs %v", i, a[i], b[i])
		}
	}
	if first := a[0].Primary.File; first != f.chapters[0] {
		t.Fatalf("first finding must come from the first chapter, got %s", first)
	}
}

func TestValidateLoadFailuresAreFindings(t *testing.T) {
	f := newFixture(t, testManifest, map[string]string{
		"bad.json":  `{"lines": [`,
		"list.json": `[]`,
		"ok.json":   chapterJSON(`{"id": "a"}`),
	})
	chapters := append(f.chapters, filepath.Join(f.dir, "missing.json"))

	res, err := Validate(context.Background(), Request{Manifest: f.manifest, Chapters: chapters})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	items := res.Bag.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 load findings, got:\n%s", render(res))
	}
	for _, d := range items {
		if d.Code != diag.IOLoadChapter || d.Severity != diag.SevError || !strings.HasPrefix(d.Message, "failed to load chapter: ") {
			t.Fatalf("unexpected finding %+v", d)
		}
	}
	if !res.Chapters[0].LoadFailed || res.Chapters[2].LoadFailed || !res.Chapters[3].LoadFailed {
		t.Fatalf("unexpected LoadFailed flags: %+v", res.Chapters)
	}
	if !strings.Contains(items[1].Message, "not a JSON object") {
		t.Fatalf("expected root-type message, got %q", items[1].Message)
	}
}

func TestValidateManifestErrorsAreFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Validate(context.Background(), Request{Manifest: filepath.Join(dir, "nope.json")})
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"characters": []}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Validate(context.Background(), Request{Manifest: bad}); err == nil {
		t.Fatalf("expected malformed manifest to fail the run")
	}
}

func TestValidateRunLevelFindingsComeFirst(t *testing.T) {
	f := newFixture(t, `{"characters": {"dr.who": {}}}`, map[string]string{
		"ch.json": chapterJSON(`{"id": "a", "type": "show_character", "character": "zed"}`),
	})
	res, err := Validate(context.Background(), Request{Manifest: f.manifest, Chapters: f.chapters})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	items := res.Bag.Items()
	if len(items) != 2 || items[0].Code != diag.AssetAmbiguousCharacterKey || items[1].Code != diag.AssetCharacterMissing {
		t.Fatalf("unexpected order:\n%s", render(res))
	}
}

func TestValidateEmptyChapterSet(t *testing.T) {
	f := newFixture(t, testManifest, nil)
	res, err := Validate(context.Background(), Request{Manifest: f.manifest})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Bag.Len() != 0 || len(res.Chapters) != 0 {
		t.Fatalf("expected an empty report, got:\n%s", render(res))
	}
}

func TestValidateCacheReplaysFindings(t *testing.T) {
	f := newFixture(t, testManifest, manyChapters(3))
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	req := Request{Manifest: f.manifest, Chapters: f.chapters, Options: Options{Cache: cache, Checks: check.DefaultOptions()}}

	cold, err := Validate(context.Background(), req)
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	warm, err := Validate(context.Background(), req)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if cold.Cached != 0 || warm.Cached != 3 {
		t.Fatalf("cached counts = %d, %d; want 0, 3", cold.Cached, warm.Cached)
	}
	if render(cold) != render(warm) {
		t.Fatalf("cached run differs:\n%s\nvs\n%s", render(cold), render(warm))
	}
	// Notes survive the round trip.
	if len(warm.Bag.Items()[0].Notes) == 0 && len(cold.Bag.Items()[0].Notes) != 0 {
		t.Fatalf("notes lost in cache")
	}

	// Changing the options changes the key.
	req.Options.Checks.UnusedLabels = false
	other, err := Validate(context.Background(), req)
	if err != nil {
		t.Fatalf("run with other options: %v", err)
	}
	if other.Cached != 0 {
		t.Fatalf("options change must miss the cache, got %d hits", other.Cached)
	}
}

func TestCacheIgnoresCorruptEntries(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	key := CacheKey("ch.json", []byte("{}"), []byte("{}"), check.Options{})
	p := cache.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte{0xc1, 0x00}, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok, err := cache.Get(key, "ch.json"); ok || err == nil {
		t.Fatalf("corrupt entry must not hit (ok=%v err=%v)", ok, err)
	}

	if err := cache.Put(key, &CachePayload{Path: "ch.json"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := cache.Get(key, "other.json"); ok {
		t.Fatalf("entry for another path must not hit")
	}
	if _, ok, err := cache.Get(key, "ch.json"); !ok || err != nil {
		t.Fatalf("expected hit after Put (ok=%v err=%v)", ok, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := cache.Get(key, "ch.json"); ok {
		t.Fatalf("DropAll must clear entries")
	}
}

func TestCacheKeyDependsOnInputs(t *testing.T) {
	base := CacheKey("a.json", []byte("m"), []byte("c"), check.DefaultOptions())
	variants := []Digest{
		CacheKey("b.json", []byte("m"), []byte("c"), check.DefaultOptions()),
		CacheKey("a.json", []byte("m2"), []byte("c"), check.DefaultOptions()),
		CacheKey("a.json", []byte("m"), []byte("c2"), check.DefaultOptions()),
		CacheKey("a.json", []byte("m"), []byte("c"), check.Options{}),
		// length-prefixing keeps boundaries distinct
		CacheKey("a.json", []byte("mc"), []byte(""), check.DefaultOptions()),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d collides with base key", i)
		}
	}
	if again := CacheKey("a.json", []byte("m"), []byte("c"), check.DefaultOptions()); again != base {
		t.Fatalf("key is not stable")
	}
}

func TestProgressEventsAndTimings(t *testing.T) {
	f := newFixture(t, testManifest, manyChapters(4))
	var (
		mu     sync.Mutex
		events []Event
	)
	timer := observ.NewTimer()
	sink := SinkFunc(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	_, err := Validate(context.Background(), Request{
		Manifest: f.manifest,
		Chapters: f.chapters,
		Options:  Options{Jobs: 2, Progress: sink, Timer: timer},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	final := map[string]Status{}
	queued := 0
	for _, ev := range events {
		if ev.Status == StatusQueued {
			queued++
		}
		if ev.File != "" {
			final[ev.File] = ev.Status
		}
	}
	if queued != 4 {
		t.Fatalf("expected 4 queued events, got %d", queued)
	}
	for _, path := range f.chapters {
		// every chapter here has error findings
		if final[path] != StatusError {
			t.Fatalf("%s final status = %q", path, final[path])
		}
	}
	if last := events[len(events)-1]; last.File != "" || last.Status != StatusDone {
		t.Fatalf("last event must be the run-level done, got %+v", last)
	}

	report := timer.Report()
	names := make([]string, 0, len(report.Phases))
	for _, p := range report.Phases {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "manifest,chapters,merge" {
		t.Fatalf("phases = %v", names)
	}
}

func TestValidateHonoursCancellation(t *testing.T) {
	f := newFixture(t, testManifest, manyChapters(3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Validate(ctx, Request{Manifest: f.manifest, Chapters: f.chapters}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResolveJobs(t *testing.T) {
	if got := resolveJobs(4, 2); got != 2 {
		t.Fatalf("resolveJobs(4, 2) = %d", got)
	}
	if got := resolveJobs(1, 0); got != 1 {
		t.Fatalf("resolveJobs(1, 0) = %d", got)
	}
	if got := resolveJobs(0, 1000); got < 1 {
		t.Fatalf("resolveJobs(0, 1000) = %d", got)
	}
}
