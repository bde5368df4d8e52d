package format

import (
	"regexp"
	"strconv"

	"github.com/raphi011/cfmt/internal/buffer"
)

var (
	// "line 10, column 5", "Line 3" - column is optional.
	lineColumnRegex = regexp.MustCompile(`(?i)\bline (\d+)(?:.*?\bcolumn (\d+))?`)
	// "10:5" as in "file.js:10:5: unexpected token".
	colonRegex = regexp.MustCompile(`\b(\d+):(\d+)\b`)
)

// ParsePosition extracts the 1-based line and column a formatter reported
// an issue at. The column defaults to 1 when only a line is given.
func ParsePosition(msg string) (buffer.Cursor, bool) {
	if m := lineColumnRegex.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		col := 1
		if m[2] != "" {
			col, _ = strconv.Atoi(m[2])
		}
		if line > 0 {
			return buffer.Cursor{Line: line, Column: max(col, 1)}, true
		}
	}
	if m := colonRegex.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		if line > 0 {
			return buffer.Cursor{Line: line, Column: max(col, 1)}, true
		}
	}
	return buffer.Cursor{}, false
}
