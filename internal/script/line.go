package script

// Kind identifies the type tag of a line.
type Kind uint8

const (
	// KindOther covers every type tag that validation does not inspect.
	KindOther Kind = iota
	KindLabel
	KindJump
	KindShowCharacter
	KindChangeExpression
	KindHideCharacter
	KindChangeBackground
	KindPlayBGM
	KindPlaySE
	KindPlayVoice
)

var kindTags = map[string]Kind{
	"label":             KindLabel,
	"jump":              KindJump,
	"show_character":    KindShowCharacter,
	"change_expression": KindChangeExpression,
	"hide_character":    KindHideCharacter,
	"change_background": KindChangeBackground,
	"play_bgm":          KindPlayBGM,
	"play_se":           KindPlaySE,
	"play_voice":        KindPlayVoice,
}

// KindOf maps a raw "type" value to its Kind; unknown tags yield KindOther.
func KindOf(tag string) Kind {
	if k, ok := kindTags[tag]; ok {
		return k
	}
	return KindOther
}

func (k Kind) String() string {
	for tag, kk := range kindTags {
		if kk == k {
			return tag
		}
	}
	return "other"
}

// Payload is the type-dependent part of a line. Exactly one concrete payload
// exists per recognised Kind; everything else decodes to Other.
type Payload interface {
	Kind() Kind
}

// Label declares a jump target.
type Label struct {
	Name string
}

// Jump transfers control to a label.
type Jump struct {
	Target string
}

// CharacterCue shows, re-expresses or hides a character.
type CharacterCue struct {
	Op         Kind // KindShowCharacter, KindChangeExpression or KindHideCharacter
	Character  string
	Expression string
}

// Background switches the background image.
type Background struct {
	Key string
}

// Music starts a BGM track.
type Music struct {
	Key string
}

// Sound plays a sound effect.
type Sound struct {
	Key string
}

// Voice plays a voice clip.
type Voice struct {
	Key string
}

// Other is any line whose type tag validation ignores.
type Other struct {
	Type string
}

func (Label) Kind() Kind          { return KindLabel }
func (Jump) Kind() Kind           { return KindJump }
func (c CharacterCue) Kind() Kind { return c.Op }
func (Background) Kind() Kind     { return KindChangeBackground }
func (Music) Kind() Kind          { return KindPlayBGM }
func (Sound) Kind() Kind          { return KindPlaySE }
func (Voice) Kind() Kind          { return KindPlayVoice }
func (Other) Kind() Kind          { return KindOther }

// Line is one decoded entry of a chapter's "lines" array.
type Line struct {
	Index   int    // position in "lines", 0-based
	ID      string // string value, or JSON text of a non-zero number or true
	HasID   bool   // false when "id" is absent, null, "", 0, false, {} or []
	Type    string
	Payload Payload
	Text    *Text // nil when the line has no "text" field
}
