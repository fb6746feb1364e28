package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Top-level fields every chapter must declare.
const (
	FieldSchemaVersion = "schema_version"
	FieldID            = "id"
	FieldLines         = "lines"
)

// RequiredFields lists the top-level fields in the order they are checked.
var RequiredFields = []string{FieldSchemaVersion, FieldID, FieldLines}

// ErrNotObject is returned when a chapter's JSON root is not an object.
var ErrNotObject = errors.New("chapter root is not a JSON object")

// Document is one decoded chapter. It is never mutated after Decode returns.
type Document struct {
	Path   string
	fields map[string]json.RawMessage

	// Lines holds every object entry of "lines" in order; Index keeps the
	// position in the file even when malformed entries were skipped.
	Lines []Line

	// LinesNotArray is set when "lines" is present but is not an array.
	LinesNotArray bool

	// Malformed lists the indices of "lines" entries that are not objects.
	Malformed []int
}

// Has reports whether a top-level field is present (any value, null included).
func (d *Document) Has(field string) bool {
	if d == nil {
		return false
	}
	_, ok := d.fields[field]
	return ok
}

// ID returns the chapter id when it is a string.
func (d *Document) ID() string {
	if d == nil {
		return ""
	}
	return stringField(d.fields, FieldID)
}

// Load reads and decodes a chapter file.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data)
}

// Decode parses chapter JSON. Only syntax errors and a non-object root are
// errors; every structural problem below the root is left to the checks.
func Decode(path string, data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	var root any
	if err := json.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := root.(map[string]any); !ok {
		return nil, ErrNotObject
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	doc := &Document{Path: path, fields: fields}
	rawLines, ok := fields[FieldLines]
	if !ok {
		return doc, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawLines, &entries); err != nil || isNull(rawLines) {
		doc.LinesNotArray = true
		return doc, nil
	}

	doc.Lines = make([]Line, 0, len(entries))
	for idx, entry := range entries {
		obj := make(map[string]json.RawMessage)
		if isNull(entry) || json.Unmarshal(entry, &obj) != nil {
			doc.Malformed = append(doc.Malformed, idx)
			continue
		}
		doc.Lines = append(doc.Lines, decodeLine(idx, obj))
	}
	return doc, nil
}

func decodeLine(idx int, obj map[string]json.RawMessage) Line {
	line := Line{
		Index: idx,
		ID:    scalarField(obj, "id"),
		Type:  stringField(obj, "type"),
	}
	line.HasID = line.ID != ""

	switch kind := KindOf(line.Type); kind {
	case KindLabel:
		line.Payload = Label{Name: scalarField(obj, "name")}
	case KindJump:
		line.Payload = Jump{Target: scalarField(obj, "target")}
	case KindShowCharacter, KindChangeExpression, KindHideCharacter:
		line.Payload = CharacterCue{
			Op:         kind,
			Character:  scalarField(obj, "character"),
			Expression: scalarField(obj, "expression"),
		}
	case KindChangeBackground:
		line.Payload = Background{Key: scalarField(obj, "background")}
	case KindPlayBGM:
		line.Payload = Music{Key: scalarField(obj, "bgm")}
	case KindPlaySE:
		line.Payload = Sound{Key: scalarField(obj, "se")}
	case KindPlayVoice:
		line.Payload = Voice{Key: scalarField(obj, "voice")}
	default:
		line.Payload = Other{Type: line.Type}
	}

	if raw, ok := obj["text"]; ok {
		line.Text = decodeText(raw)
	}
	return line
}

// stringField returns the value of key when it is a JSON string, "" otherwise.
func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// scalarField returns the key of a reference-like value: a non-empty string
// as is, a non-zero number or true as its JSON text. Empty strings, zero,
// false, null, objects and arrays count as absent.
func scalarField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch c := raw[0]; {
	case c == '"':
		return stringField(obj, key)
	case c == 't':
		if string(raw) == "true" {
			return "true"
		}
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err == nil && f != 0 {
			return string(raw)
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
