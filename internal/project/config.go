package project

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default layout of a game project.
const (
	DefaultManifest = "data/assets/manifest.json"
	DefaultChapters = "data/scenarios/*.json"
)

// Config is the decoded scenecheck.toml.
type Config struct {
	Paths  PathsConfig  `toml:"paths"`
	Checks ChecksConfig `toml:"checks"`
	Output OutputConfig `toml:"output"`

	// Root is the directory relative paths are resolved against: the
	// directory of the loaded file, or the working directory.
	Root string `toml:"-"`
	// File is the path the config was read from, empty for defaults.
	File string `toml:"-"`
}

type PathsConfig struct {
	Manifest string   `toml:"manifest"`
	Chapters []string `toml:"chapters"`
	Exclude  []string `toml:"exclude"`
}

type ChecksConfig struct {
	UnusedLabels    bool `toml:"unused_labels"`
	DuplicateLabels bool `toml:"duplicate_labels"`
	LanguageTags    bool `toml:"language_tags"`
}

type OutputConfig struct {
	Format string `toml:"format"`
	FailOn string `toml:"fail_on"`
	Jobs   int    `toml:"jobs"`
}

// Default returns the configuration used when no scenecheck.toml exists.
func Default(root string) *Config {
	return &Config{
		Paths: PathsConfig{
			Manifest: DefaultManifest,
			Chapters: []string{DefaultChapters},
		},
		Checks: ChecksConfig{
			UnusedLabels:    true,
			DuplicateLabels: true,
		},
		Output: OutputConfig{
			Format: "pretty",
			FailOn: "any",
			Jobs:   1,
		},
		Root: root,
	}
}

var (
	formats = []string{"pretty", "short", "json", "sarif"}
	failOns = []string{"any", "info", "warning", "error", "never"}
)

// Load decodes path on top of the defaults. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	cfg := Default(filepath.Dir(abs))
	cfg.File = abs

	md, err := toml.DecodeFile(abs, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the config at explicit when set, otherwise the nearest
// scenecheck.toml above startDir, otherwise the defaults rooted at startDir.
func Resolve(explicit, startDir string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if ok {
		return Load(path)
	}
	root, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	return Default(root), nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if !slices.Contains(formats, c.Output.Format) {
		return fmt.Errorf("output.format %q is not one of %s", c.Output.Format, strings.Join(formats, "|"))
	}
	if !slices.Contains(failOns, c.Output.FailOn) {
		return fmt.Errorf("output.fail_on %q is not one of %s", c.Output.FailOn, strings.Join(failOns, "|"))
	}
	if c.Output.Jobs < 0 {
		return fmt.Errorf("output.jobs must not be negative, got %d", c.Output.Jobs)
	}
	if c.Paths.Manifest == "" {
		return fmt.Errorf("paths.manifest must not be empty")
	}
	return nil
}

// ManifestPath returns the manifest path resolved against Root.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Paths.Manifest)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Template is the file written by `scenecheck init`.
const Template = `# scenecheck configuration

[paths]
# Asset manifest listing every registered key.
manifest = "data/assets/manifest.json"
# Chapter files; ** matches any number of directories.
chapters = ["data/scenarios/*.json"]
exclude = []

[checks]
unused_labels = true
duplicate_labels = true
language_tags = false

[output]
# pretty | short | json | sarif
format = "pretty"
# any | info | warning | error | never
fail_on = "any"
# 0 = one worker per CPU
jobs = 1
`

// WriteTemplate creates scenecheck.toml in dir. It refuses to overwrite an
// existing file unless force is set.
func WriteTemplate(dir string, force bool) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, ConfigFileName)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	// #nosec G304 -- path is built from the init target directory
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.WriteString(Template); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}
