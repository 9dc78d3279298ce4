package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatIncludesLineAndCaret(t *testing.T) {
	source := "fn main() {\n\tlet = 1;\n}\n"
	out := Format(source, 2, 4, "=")
	require.True(t, strings.Contains(out, "2 |"))
	require.True(t, strings.Contains(out, "^"))
	require.True(t, strings.Contains(out, "unexpected `="))
}

func TestLineColumnExpandsTabs(t *testing.T) {
	source := "a\n\tb"
	line, col := LineColumn(source, len(source))
	require.Equal(t, 2, line)
	require.Equal(t, 5, col) // one tab (4 cols) + 'b'
}

func TestLineAtTrimsLeadingWhitespaceAndTabs(t *testing.T) {
	got := lineAt("fn main() {\n\tlet x = 1;\n}", 2)
	require.Equal(t, "let x = 1;", got)
}
