package diag

import (
	"fmt"
	"sort"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Загрузка файлов
	IOLoadChapter Code = 1001

	// Структура документа главы
	SchMissingField  Code = 2001
	SchLinesNotArray Code = 2002
	SchLineNotObject Code = 2003

	// Идентификаторы строк
	LineMissingID   Code = 3001
	LineDuplicateID Code = 3002

	// Метки и переходы
	FlowUndefinedJump  Code = 4001
	FlowUnusedLabel    Code = 4002
	FlowDuplicateLabel Code = 4003

	// Ссылки на ассеты
	AssetCharacterMissing      Code = 5001
	AssetExpressionMissing     Code = 5002
	AssetBackgroundMissing     Code = 5003
	AssetMusicMissing          Code = 5004
	AssetSoundMissing          Code = 5005
	AssetVoiceMissing          Code = 5006
	AssetAmbiguousCharacterKey Code = 5007 // manifest character key contains '.'

	// Текстовые поля
	TextInvalidType       Code = 6001
	TextEmptyLocalization Code = 6002
	TextInvalidEntry      Code = 6003 // localized value is not a string
	TextBadLanguageTag    Code = 6004
)

type codeInfo struct {
	title string
	sev   Severity
}

var codeTable = map[Code]codeInfo{
	UnknownCode:                {"unknown diagnostic", SevError},
	IOLoadChapter:              {"chapter file could not be loaded", SevError},
	SchMissingField:            {"required top-level field is missing", SevError},
	SchLinesNotArray:           {"'lines' must be an array", SevError},
	SchLineNotObject:           {"line entry must be an object", SevError},
	LineMissingID:              {"line has no 'id'", SevError},
	LineDuplicateID:            {"duplicate line id", SevError},
	FlowUndefinedJump:          {"undefined jump target", SevWarning},
	FlowUnusedLabel:            {"unused label", SevInfo},
	FlowDuplicateLabel:         {"label declared more than once", SevWarning},
	AssetCharacterMissing:      {"character not registered", SevError},
	AssetExpressionMissing:     {"expression not registered", SevError},
	AssetBackgroundMissing:     {"background not registered", SevError},
	AssetMusicMissing:          {"BGM not registered", SevError},
	AssetSoundMissing:          {"SE not registered", SevError},
	AssetVoiceMissing:          {"voice not registered", SevError},
	AssetAmbiguousCharacterKey: {"character key contains the expression separator", SevWarning},
	TextInvalidType:            {"text field must be string or mapping", SevError},
	TextEmptyLocalization:      {"text mapping is empty", SevWarning},
	TextInvalidEntry:           {"localized text must be a string", SevWarning},
	TextBadLanguageTag:         {"malformed language tag", SevWarning},
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SCH%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LID%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("FLW%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("AST%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("TXT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	info, ok := codeTable[c]
	if !ok {
		return codeTable[UnknownCode].title
	}
	return info.title
}

// Severity returns the severity every checker emits for this code.
func (c Code) Severity() Severity {
	info, ok := codeTable[c]
	if !ok {
		return SevError
	}
	return info.sev
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Codes lists every known code except UnknownCode in ascending order.
func Codes() []Code {
	out := make([]Code, 0, len(codeTable))
	for c := range codeTable {
		if c == UnknownCode {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
