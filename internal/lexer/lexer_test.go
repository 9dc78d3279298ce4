package lexer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stackc-go/stackc/internal/token"
)

// TestSpec is a single lexer test case loaded from testdata/lexer.yaml.
type TestSpec struct {
	Name   string   `yaml:"name"`
	Input  string   `yaml:"input"`
	Tokens []string `yaml:"tokens"`
}

// TestFile is the testdata/lexer.yaml file structure.
type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestNextTokenYAML(t *testing.T) {
	data, err := os.ReadFile("../../testdata/lexer.yaml")
	require.NoError(t, err)

	var file TestFile
	require.NoError(t, yaml.Unmarshal(data, &file))

	for _, tc := range file.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			l := New(tc.Input)
			for i, want := range tc.Tokens {
				tok := l.NextToken()
				require.NotEqual(t, token.EOF, tok.Type, "token %d: ran out of input early", i)
				require.Equal(t, want, tok.Type.String(), "token %d literal=%q", i, tok.Literal)
			}
			require.Equal(t, token.EOF, l.NextToken().Type)
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	l := New("42 3.5")
	tok := l.NextToken()
	require.Equal(t, token.INT, tok.Type)
	require.Equal(t, "42", tok.Literal)
	tok = l.NextToken()
	require.Equal(t, token.FLOAT, tok.Type)
	require.Equal(t, "3.5", tok.Literal)
}

func TestCommentsSkipped(t *testing.T) {
	l := New("// line comment\nfn /* block */ main")
	tok := l.NextToken()
	require.Equal(t, token.FN, tok.Type)
	tok = l.NextToken()
	require.Equal(t, token.IDENT, tok.Type)
	require.Equal(t, "main", tok.Literal)
}

func TestDocHeaderToken(t *testing.T) {
	l := New("## Geometry helpers\nfn main")
	tok := l.NextToken()
	require.Equal(t, token.DOC, tok.Type)
	require.Equal(t, "Geometry helpers", tok.Literal)
	tok = l.NextToken()
	require.Equal(t, token.FN, tok.Type)
}

func TestDocCommentsAccumulateAndClearOnTake(t *testing.T) {
	l := New("/// first line\n/// second line\nfn main")
	require.Equal(t, "", l.TakeDoc(), "nothing accumulated yet")

	tok := l.NextToken()
	require.Equal(t, token.FN, tok.Type)
	require.Equal(t, "first line\nsecond line", l.TakeDoc())
	require.Equal(t, "", l.TakeDoc(), "buffer cleared after first TakeDoc")
}

func TestOrdinaryLineCommentsDoNotAccumulate(t *testing.T) {
	l := New("// not a doc comment\nfn main")
	l.NextToken()
	require.Equal(t, "", l.TakeDoc())
}
