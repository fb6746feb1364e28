package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// chapterPattern is applied to directories given on the command line.
const chapterPattern = "**/*.json"

// Chapters expands the configured chapter globs relative to Root and drops
// excluded files. The result is sorted and free of duplicates.
func (c *Config) Chapters() ([]string, error) {
	found := make(map[string]struct{})
	for _, pattern := range c.Paths.Chapters {
		matches, err := doublestar.FilepathGlob(c.resolve(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid chapter pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			found[filepath.Clean(m)] = struct{}{}
		}
	}
	return c.filter(found)
}

// ExpandPaths turns command-line arguments into chapter files: files are
// kept as given, directories are searched recursively for *.json, and
// arguments containing glob metacharacters are expanded. The manifest is
// never treated as a chapter.
func (c *Config) ExpandPaths(args []string) ([]string, error) {
	found := make(map[string]struct{})
	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.Glob(os.DirFS(arg), chapterPattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
			}
			for _, m := range matches {
				found[filepath.Join(arg, filepath.FromSlash(m))] = struct{}{}
			}
		case err == nil:
			found[filepath.Clean(arg)] = struct{}{}
		case hasMeta(arg):
			matches, gerr := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
			if gerr != nil {
				return nil, fmt.Errorf("invalid chapter pattern %q: %w", arg, gerr)
			}
			for _, m := range matches {
				found[filepath.Clean(m)] = struct{}{}
			}
		default:
			// Missing files are reported as load failures by the driver.
			found[filepath.Clean(arg)] = struct{}{}
		}
	}
	return c.filter(found)
}

func (c *Config) filter(found map[string]struct{}) ([]string, error) {
	manifest, _ := filepath.Abs(c.ManifestPath())
	out := make([]string, 0, len(found))
	for path := range found {
		if abs, err := filepath.Abs(path); err == nil && abs == manifest {
			continue
		}
		excluded, err := c.excluded(path)
		if err != nil {
			return nil, err
		}
		if !excluded {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (c *Config) excluded(path string) (bool, error) {
	if len(c.Paths.Exclude) == 0 {
		return false, nil
	}
	rel := path
	if c.Root != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if r, err := filepath.Rel(c.Root, abs); err == nil && !strings.HasPrefix(r, "..") {
				rel = r
			}
		}
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	for _, pattern := range c.Paths.Exclude {
		pattern = filepath.ToSlash(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return false, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true, nil
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true, nil
		}
	}
	return false, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, `*?[{`)
}
