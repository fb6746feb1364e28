// Package manifest decodes the asset registry that chapter references are
// checked against. A Manifest is read-only once loaded and safe to share
// between goroutines.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// Category is one top-level section of the manifest.
type Category uint8

const (
	Characters Category = iota
	Backgrounds
	Music
	Sounds
	Voices
)

// Key returns the manifest JSON key of the category.
func (c Category) Key() string {
	switch c {
	case Characters:
		return "characters"
	case Backgrounds:
		return "bg"
	case Music:
		return "bgm"
	case Sounds:
		return "sfx"
	case Voices:
		return "voice"
	}
	return "unknown"
}

// Label returns the name used in findings.
func (c Category) Label() string {
	switch c {
	case Characters:
		return "character"
	case Backgrounds:
		return "background"
	case Music:
		return "BGM"
	case Sounds:
		return "SE"
	case Voices:
		return "voice"
	}
	return "asset"
}

// ErrNotFound wraps a missing manifest file.
var ErrNotFound = errors.New("manifest not found")

// ErrNotObject is returned when the manifest root is not a JSON object.
var ErrNotObject = errors.New("manifest root is not a JSON object")

type keySet map[string]struct{}

// Manifest lists the declared asset keys. Values in the JSON document are
// opaque; only key presence matters.
type Manifest struct {
	Path       string
	characters map[string]keySet
	flat       [Voices + 1]keySet
	raw        []byte
}

type document struct {
	Characters map[string]map[string]json.RawMessage `json:"characters"`
	BG         map[string]json.RawMessage            `json:"bg"`
	BGM        map[string]json.RawMessage            `json:"bgm"`
	SFX        map[string]json.RawMessage            `json:"sfx"`
	Voice      map[string]json.RawMessage            `json:"voice"`
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(path, data)
}

// Decode parses manifest JSON. The root must be a single object; missing
// sections are treated as empty, sections with the wrong shape are an error.
func Decode(path string, data []byte) (*Manifest, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%s: invalid manifest: %w", path, err)
	}
	if _, ok := root.(map[string]any); !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotObject)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: invalid manifest: %w", path, err)
	}

	m := &Manifest{
		Path:       path,
		characters: make(map[string]keySet, len(doc.Characters)),
		raw:        data,
	}
	for name, expressions := range doc.Characters {
		set := make(keySet, len(expressions))
		for expr := range expressions {
			set[expr] = struct{}{}
		}
		m.characters[name] = set
	}
	m.flat[Backgrounds] = keysOf(doc.BG)
	m.flat[Music] = keysOf(doc.BGM)
	m.flat[Sounds] = keysOf(doc.SFX)
	m.flat[Voices] = keysOf(doc.Voice)
	return m, nil
}

func keysOf(m map[string]json.RawMessage) keySet {
	set := make(keySet, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return set
}

// HasCharacter reports whether a character key is declared.
func (m *Manifest) HasCharacter(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.characters[name]
	return ok
}

// HasExpression reports whether expr is declared under character name.
func (m *Manifest) HasExpression(name, expr string) bool {
	if m == nil {
		return false
	}
	exprs, ok := m.characters[name]
	if !ok {
		return false
	}
	_, ok = exprs[expr]
	return ok
}

// Has reports whether key is declared in a flat category. For Characters it
// is equivalent to HasCharacter.
func (m *Manifest) Has(c Category, key string) bool {
	if m == nil {
		return false
	}
	if c == Characters {
		return m.HasCharacter(key)
	}
	if c > Voices {
		return false
	}
	_, ok := m.flat[c][key]
	return ok
}

// CharacterNames returns every character key in sorted order.
func (m *Manifest) CharacterNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.characters))
	for name := range m.characters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of keys declared in a category.
func (m *Manifest) Len(c Category) int {
	if m == nil {
		return 0
	}
	if c == Characters {
		return len(m.characters)
	}
	if c > Voices {
		return 0
	}
	return len(m.flat[c])
}

// Bytes returns the raw manifest document, used to key cached results.
func (m *Manifest) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.raw
}
