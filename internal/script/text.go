package script

import (
	"bytes"
	"encoding/json"
	"sort"
)

// TextShape classifies the JSON value of a "text" field.
type TextShape uint8

const (
	TextInvalid   TextShape = iota // number, bool, array or null
	TextPlain                      // a JSON string
	TextLocalized                  // an object of language code -> value
)

// Text keeps the decoded "text" value. Localized values stay raw so the
// checker can tell strings from anything else.
type Text struct {
	Shape     TextShape
	Plain     string
	Localized map[string]json.RawMessage
	Raw       json.RawMessage
}

func decodeText(raw json.RawMessage) *Text {
	t := &Text{Raw: raw}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return t
	}
	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &t.Plain); err == nil {
			t.Shape = TextPlain
		}
	case '{':
		m := make(map[string]json.RawMessage)
		if err := json.Unmarshal(trimmed, &m); err == nil {
			t.Shape = TextLocalized
			t.Localized = m
		}
	}
	return t
}

// Languages returns the language keys of a localized text in sorted order.
func (t *Text) Languages() []string {
	if t == nil || t.Shape != TextLocalized {
		return nil
	}
	out := make([]string, 0, len(t.Localized))
	for lang := range t.Localized {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// IsStringValue reports whether the localized entry for lang is a JSON string.
func (t *Text) IsStringValue(lang string) bool {
	raw, ok := t.Localized[lang]
	if !ok {
		return false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil
}
