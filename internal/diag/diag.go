// Package diag renders source-position parse/compile errors as a
// gutter-and-caret snippet, grounded on original_source/src/lib.rs's
// make_error/get_line/format_error. The original highlights the
// offending line and underline in bright yellow via the `asciicolor`
// crate; this port reaches for the teacher's own diagnostics dependency,
// fatih/color, for the same highlighting.
package diag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	highlight = color.New(color.FgHiYellow, color.Underline)
)

// Format renders a one-line "unexpected token" diagnostic for source at
// the given 1-indexed line and 0-based column, the column counted within
// the tab-expanded, left-trimmed line (see lineAt), following
// make_error's gutter shape:
// a blank margin line, the offending source line prefixed by its number,
// a caret line underlining the bad span, and a trailing "unexpected"
// message.
func Format(source string, line, column int, unexpected string) string {
	lineText := lineAt(source, line)
	underline := caretFor(column, unexpected)
	margin := strings.Repeat(" ", len(strconv.Itoa(line)))

	return fmt.Sprintf(
		"%s |\n%d | %s\n%s | %s\n%s |\n%s = unexpected `%s`",
		margin, line, highlight.Sprint(lineText),
		margin, underline,
		margin, margin, highlight.Sprint(unexpected),
	)
}

// lineAt returns the 1-indexed line of source, with tabs expanded to four
// columns the way get_line's `.replace("\t", "    ")` does, and leading
// whitespace trimmed (get_line reports columns relative to the trimmed
// line, not the raw one).
func lineAt(source string, line int) string {
	lines := strings.Split(source, "\n")
	if line < 1 || line > len(lines) {
		if len(lines) == 0 {
			return ""
		}
		return strings.TrimLeft(expandTabs(lines[len(lines)-1]), " ")
	}
	return strings.TrimLeft(expandTabs(lines[line-1]), " ")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// caretFor builds the "   ^---" underline make_error draws beneath the
// offending token: column spaces, then a caret, then len(unexpected)-1
// dashes.
func caretFor(column int, unexpected string) string {
	dashes := len(unexpected) - 1
	if dashes < 0 {
		dashes = 0
	}
	return strings.Repeat(" ", column) + "^" + strings.Repeat("-", dashes)
}

// LineColumn converts a 0-indexed rune offset into source into a
// 1-indexed line and a 0-based column (the number of columns before
// offset on its line), expanding tabs to four columns the way get_line's
// column-tracking loop does. Leading whitespace is not trimmed.
func LineColumn(source string, offset int) (line, column int) {
	line = 1
	column = 0
	runes := []rune(source)
	if offset > len(runes) {
		offset = len(runes)
	}
	for _, ch := range runes[:offset] {
		switch ch {
		case '\n':
			line++
			column = 0
		case '\t':
			column += 4
		default:
			column++
		}
	}
	return line, column
}
