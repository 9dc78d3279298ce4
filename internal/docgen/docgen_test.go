package docgen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackc-go/stackc/internal/parser"
)

func TestCollectGathersHeaderFunctionAndStructure(t *testing.T) {
	src := `
## Geometry helpers

/// Returns the distance between two points.
fn dist(a: num, b: num) -> num {
	return a;
}

/// A point in 2D space.
struct Point {
	x: num;
	y: num;

	fn len(self: &Point) -> num {
		return self.x;
	}
}
`
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	doc := Collect(prog)
	require.Len(t, doc.Entries, 3)

	require.Equal(t, "Geometry helpers", doc.Entries[0].Header)

	fn := doc.Entries[1].Function
	require.NotNil(t, fn)
	require.Equal(t, "dist", fn.Name)
	require.Equal(t, "Returns the distance between two points.", fn.Doc)
	require.Equal(t, []ParamDoc{{Name: "a", Type: "num"}, {Name: "b", Type: "num"}}, fn.Params)
	require.Equal(t, "num", fn.ReturnType)

	st := doc.Entries[2].Structure
	require.NotNil(t, st)
	require.Equal(t, "Point", st.Name)
	require.Equal(t, "A point in 2D space.", st.Doc)
	require.Len(t, st.Members, 2)
	require.Len(t, st.Methods, 1)
	require.Equal(t, "len", st.Methods[0].Name)
	require.Equal(t, "&Point", st.Methods[0].Params[0].Type)
}

func TestRenderProducesReadableText(t *testing.T) {
	src := `
/// Adds one to x.
fn inc(x: num) -> num {
	return x;
}
`
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(Collect(prog), &buf))

	out := buf.String()
	require.True(t, strings.Contains(out, "fn inc(x: num) -> num"))
	require.True(t, strings.Contains(out, "Adds one to x."))
}

func TestRenderYAMLRoundTripsStructure(t *testing.T) {
	src := `
struct Counter {
	n: num;
}
`
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderYAML(Collect(prog), &buf))

	out := buf.String()
	require.True(t, strings.Contains(out, "name: Counter"))
	require.True(t, strings.Contains(out, "n"))
}

func TestWriteToChoosesFormatByExtension(t *testing.T) {
	prog, err := parser.Parse("fn f() -> void {}\n")
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, WriteTo(prog, "", &text))
	require.True(t, strings.Contains(text.String(), "fn f()"))

	var yamlOut bytes.Buffer
	require.NoError(t, WriteTo(prog, "out.yaml", &yamlOut))
	require.True(t, strings.Contains(yamlOut.String(), "entries:"))
}
