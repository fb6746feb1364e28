package check

import (
	"fmt"
	"strings"

	"scenecheck/internal/diag"
	"scenecheck/internal/manifest"
	"scenecheck/internal/script"
)

// ExpressionSeparator joins a character key and an expression key in a
// character reference. It is not escaped: a character key that itself
// contains '.' is ambiguous with this encoding (see CheckManifest).
const ExpressionSeparator = "."

// References holds the asset keys mentioned by one chapter, one set per
// manifest category. Character references are "char" or "char.expr".
type References struct {
	sets  [manifest.Voices + 1]Set
	sites [manifest.Voices + 1]map[string]site
}

// Of returns the reference set of a category.
func (r *References) Of(c manifest.Category) Set {
	if r == nil || c > manifest.Voices {
		return nil
	}
	return r.sets[c]
}

func (r *References) add(c manifest.Category, key string, line script.Line) {
	if r.sets[c] == nil {
		r.sets[c] = make(Set)
		r.sites[c] = make(map[string]site)
	}
	r.sets[c].Add(key)
	if _, ok := r.sites[c][key]; !ok {
		r.sites[c][key] = site{line.Index, line.ID}
	}
}

// CharacterRef encodes a character mention. An empty expression means the
// expression is unconstrained.
func CharacterRef(character, expression string) string {
	if expression == "" {
		return character
	}
	return character + ExpressionSeparator + expression
}

// SplitCharacterRef decodes a character reference. It yields an expression
// only when the reference splits into exactly two non-empty parts; anything
// else is a bare character key.
func SplitCharacterRef(ref string) (character, expression string) {
	parts := strings.Split(ref, ExpressionSeparator)
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1]
	}
	return ref, ""
}

// CollectAssets scans the lines once and gathers every non-empty asset key.
func CollectAssets(lines []script.Line) References {
	var refs References
	for c := range refs.sets {
		refs.sets[c] = make(Set)
		refs.sites[c] = make(map[string]site)
	}
	for _, line := range lines {
		switch p := line.Payload.(type) {
		case script.CharacterCue:
			if p.Character != "" {
				refs.add(manifest.Characters, CharacterRef(p.Character, p.Expression), line)
			}
		case script.Background:
			if p.Key != "" {
				refs.add(manifest.Backgrounds, p.Key, line)
			}
		case script.Music:
			if p.Key != "" {
				refs.add(manifest.Music, p.Key, line)
			}
		case script.Sound:
			if p.Key != "" {
				refs.add(manifest.Sounds, p.Key, line)
			}
		case script.Voice:
			if p.Key != "" {
				refs.add(manifest.Voices, p.Key, line)
			}
		}
	}
	return refs
}

var flatCodes = map[manifest.Category]diag.Code{
	manifest.Backgrounds: diag.AssetBackgroundMissing,
	manifest.Music:       diag.AssetMusicMissing,
	manifest.Sounds:      diag.AssetSoundMissing,
	manifest.Voices:      diag.AssetVoiceMissing,
}

// CheckAssets reports every reference whose key is absent from the manifest.
// Output is ordered by category, then key, so identical input always yields
// identical output.
func CheckAssets(path string, refs References, m *manifest.Manifest) []diag.Diagnostic {
	var out diag.List
	for _, ref := range refs.Of(manifest.Characters).Sorted() {
		where := refs.locate(path, manifest.Characters, ref)
		character, expression := SplitCharacterRef(ref)
		if !m.HasCharacter(character) {
			diag.ReportError(&out, diag.AssetCharacterMissing, where,
				fmt.Sprintf("character '%s' is not registered in the manifest", character)).Emit()
			continue
		}
		if expression != "" && !m.HasExpression(character, expression) {
			diag.ReportError(&out, diag.AssetExpressionMissing, where,
				fmt.Sprintf("expression '%s' of character '%s' is not registered in the manifest", expression, character)).Emit()
		}
	}
	for _, c := range []manifest.Category{manifest.Backgrounds, manifest.Music, manifest.Sounds, manifest.Voices} {
		for _, key := range refs.Of(c).Sorted() {
			if m.Has(c, key) {
				continue
			}
			diag.ReportError(&out, flatCodes[c], refs.locate(path, c, key),
				fmt.Sprintf("%s '%s' is not registered in the manifest", c.Label(), key)).Emit()
		}
	}
	return out
}

func (r *References) locate(path string, c manifest.Category, key string) diag.Location {
	s, ok := r.sites[c][key]
	return locate(path, s, ok)
}

// CheckManifest warns about character keys that contain the expression
// separator: a reference to such a character with an expression, or even a
// bare one, is decoded as a different character.
func CheckManifest(m *manifest.Manifest) []diag.Diagnostic {
	var out diag.List
	if m == nil {
		return out
	}
	for _, name := range m.CharacterNames() {
		if !strings.Contains(name, ExpressionSeparator) {
			continue
		}
		diag.ReportWarning(&out, diag.AssetAmbiguousCharacterKey, diag.At(m.Path),
			fmt.Sprintf("character key '%s' contains '%s' and is ambiguous in character references", name, ExpressionSeparator)).Emit()
	}
	return out
}
