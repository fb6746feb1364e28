package diag

import (
	"path/filepath"
	"strconv"
)

// NoLine marks a Location that is not tied to a single line of a chapter.
const NoLine = -1

// Location points at a chapter file and, optionally, one entry of its "lines" array.
type Location struct {
	File   string
	Line   int    // 0-based index into "lines", NoLine for chapter-wide findings
	LineID string // id of the line when it has one
}

// At returns a chapter-wide location.
func At(file string) Location {
	return Location{File: file, Line: NoLine}
}

// AtLine returns a location for the line at index idx.
func AtLine(file string, idx int, id string) Location {
	return Location{File: file, Line: idx, LineID: id}
}

func (l Location) HasLine() bool {
	return l.Line >= 0
}

// Base returns the same location with the file reduced to its basename.
func (l Location) Base() Location {
	if l.File != "" {
		l.File = filepath.Base(l.File)
	}
	return l
}

// String renders "file", "file#idx" or "file#idx(id)".
func (l Location) String() string {
	s := filepath.ToSlash(l.File)
	if !l.HasLine() {
		return s
	}
	s += "#" + strconv.Itoa(l.Line)
	if l.LineID != "" {
		s += "(" + l.LineID + ")"
	}
	return s
}

type Note struct {
	Where Location
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}

func New(sev Severity, code Code, primary Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Location, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(where Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Where: where, Msg: msg})
	return d
}
