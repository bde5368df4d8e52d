// Package buffer holds buffer snapshots and cursor arithmetic.
//
// A snapshot is read once when formatting is triggered and replaced
// wholesale on success. Cursors are 1-based line/column pairs where the
// column counts runes, the way editors show them in a status bar.
package buffer

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/raphi011/cfmt/internal/storage"
)

// Snapshot is the content of a file at trigger time.
type Snapshot struct {
	Path string
	Text []byte
	Mode os.FileMode
}

// Load reads the file at path.
func Load(path string) (Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	if !info.Mode().IsRegular() {
		return Snapshot{}, fmt.Errorf("%s is not a regular file", path)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Text: text, Mode: info.Mode().Perm()}, nil
}

// Replace writes text over the snapshot's file, keeping its permissions.
func (s Snapshot) Replace(text []byte) error {
	return storage.WriteFileAtomic(s.Path, text, s.Mode)
}

// Cursor is a 1-based position in a buffer.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsZero reports whether c is unset.
func (c Cursor) IsZero() bool {
	return c.Line == 0 && c.Column == 0
}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// ParseCursor parses "line:col" or "line". Both parts are 1-based.
func ParseCursor(s string) (Cursor, error) {
	lineStr, colStr, hasCol := strings.Cut(s, ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return Cursor{}, fmt.Errorf("invalid cursor %q: expected LINE[:COLUMN]", s)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colStr)
		if err != nil || col < 1 {
			return Cursor{}, fmt.Errorf("invalid cursor %q: expected LINE[:COLUMN]", s)
		}
	}
	return Cursor{Line: line, Column: col}, nil
}

// lines splits text on "\n", keeping a final empty line after a trailing newline.
func lines(text []byte) []string {
	return strings.Split(string(text), "\n")
}

// Clamp moves c onto the nearest valid position of text.
// A column past the end of its line lands after the last character.
func Clamp(text []byte, c Cursor) Cursor {
	ls := lines(text)
	line := min(max(c.Line, 1), len(ls))
	width := utf8.RuneCountInString(strings.TrimSuffix(ls[line-1], "\r"))
	col := min(max(c.Column, 1), width+1)
	return Cursor{Line: line, Column: col}
}

// CursorAt returns the cursor for a byte offset into text.
// Offsets past the end clamp to the end.
func CursorAt(text []byte, offset int) Cursor {
	offset = min(max(offset, 0), len(text))
	head := text[:offset]
	line := 1 + strings.Count(string(head), "\n")
	start := strings.LastIndexByte(string(head), '\n') + 1
	return Cursor{Line: line, Column: 1 + utf8.RuneCount(head[start:])}
}

// Offset returns the byte offset of c in text after clamping.
func Offset(text []byte, c Cursor) int {
	c = Clamp(text, c)
	ls := lines(text)
	off := 0
	for _, l := range ls[:c.Line-1] {
		off += len(l) + 1
	}
	cur := ls[c.Line-1]
	for i := range cur {
		if c.Column == 1 {
			return off + i
		}
		c.Column--
	}
	return off + len(cur)
}

// Follow maps a cursor from before to after formatting, best-effort:
// the cursor keeps its line and column, clamped to the new text.
func Follow(after []byte, c Cursor) Cursor {
	if c.IsZero() {
		return c
	}
	return Clamp(after, c)
}
