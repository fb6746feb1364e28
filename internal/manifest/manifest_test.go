package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `{
  "characters": {"ann": {"happy": "ann_happy.png", "sad": {}}, "bob": {}},
  "bg": {"street": "bg/street.png"},
  "bgm": {"theme": 1},
  "sfx": {"door": null},
  "voice": {"ann_001": true}
}`

func TestDecodeLookups(t *testing.T) {
	m, err := Decode("manifest.json", []byte(sampleManifest))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !m.HasCharacter("ann") || !m.HasCharacter("bob") || m.HasCharacter("cid") {
		t.Fatalf("unexpected character lookups")
	}
	if !m.HasExpression("ann", "happy") || !m.HasExpression("ann", "sad") {
		t.Fatalf("expected ann expressions to be registered")
	}
	if m.HasExpression("bob", "happy") || m.HasExpression("cid", "happy") {
		t.Fatalf("unexpected expression hit")
	}
	cases := []struct {
		cat  Category
		key  string
		want bool
	}{
		{Backgrounds, "street", true},
		{Backgrounds, "park", false},
		{Music, "theme", true},
		{Sounds, "door", true},
		{Voices, "ann_001", true},
		{Voices, "ann_002", false},
		{Characters, "ann", true},
	}
	for _, tc := range cases {
		if got := m.Has(tc.cat, tc.key); got != tc.want {
			t.Fatalf("Has(%s, %q) = %v, want %v", tc.cat.Key(), tc.key, got, tc.want)
		}
	}
	if got := m.CharacterNames(); len(got) != 2 || got[0] != "ann" || got[1] != "bob" {
		t.Fatalf("CharacterNames() = %v", got)
	}
}

func TestDecodeMissingSectionsAreEmpty(t *testing.T) {
	m, err := Decode("manifest.json", []byte(`{"bg": {"street": 1}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Len(Characters) != 0 || m.Len(Music) != 0 || m.Len(Backgrounds) != 1 {
		t.Fatalf("unexpected section sizes")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for name, data := range map[string]string{
		"syntax":          `{"bg": `,
		"bg not object":   `{"bg": ["street"]}`,
		"character shape": `{"characters": {"ann": "happy"}}`,
		"trailing value":  `{"characters":{}} x`,
		"trailing object": `{"bg":{}}{`,
		"array root":      `[]`,
	} {
		if _, err := Decode("manifest.json", []byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDecodeRejectsNonObjectRoot(t *testing.T) {
	for _, data := range []string{`null`, `"bg"`, `3`, `[{"bg": {}}]`} {
		_, err := Decode("manifest.json", []byte(data))
		if !errors.Is(err, ErrNotObject) {
			t.Fatalf("Decode(%s) error = %v, want ErrNotObject", data, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "manifest.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load error = %v, want ErrNotFound", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(sampleManifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Path != path || len(m.Bytes()) == 0 {
		t.Fatalf("expected path and raw bytes to be kept")
	}
}
