package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/stackc-go/stackc/internal/target"
)

func writeSource(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ok")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCompilePropagatesIncludedDeclarations(t *testing.T) {
	dir := t.TempDir()
	helperPath := filepath.Join(dir, "helper.ok")
	require.NoError(t, os.WriteFile(helperPath, []byte(`
fn helper_value() -> num {
	return 42;
}
`), 0o644))

	mainPath := filepath.Join(dir, "main.ok")
	require.NoError(t, os.WriteFile(mainPath, []byte(`
include "helper.ok";

fn main() {
	if helper_value() > 0 {
		alloc(1);
	}
}
`), 0o644))

	code, err := Compile(Options{SourcePath: mainPath, Target: target.C{}})
	require.NoError(t, err)
	// Functions are assembled under synthesized fn<id> names (vm.assembledName),
	// not their source names, so two distinct function headers is the signal
	// that helper_value's declaration made it into the program via the include.
	require.Contains(t, code, "void fn0(machine *vm);")
	require.Contains(t, code, "void fn1(machine *vm);")
	require.Contains(t, code, "ok_gt")
}

func TestCompileEmitsCSourceForSimpleProgram(t *testing.T) {
	path := writeSource(t, `
fn main() {
	let x = 1 + 2;
	if x < 10 {
		alloc(1);
	}
}
`)
	code, err := Compile(Options{SourcePath: path, Target: target.C{}})
	require.NoError(t, err)
	require.Contains(t, code, "int main(void)")
	require.Contains(t, code, "ok_lt")
}

func TestCompileRejectsTypeMismatch(t *testing.T) {
	path := writeSource(t, `
fn main() {
	let x: num = true;
}
`)
	_, err := Compile(Options{SourcePath: path, Target: target.C{}})
	require.Error(t, err)
}

func TestCompileSynthesizesStructureCopyDrop(t *testing.T) {
	path := writeSource(t, `
struct Point {
	x: num;
	y: num;
}

fn main() {
	let p: Point;
}
`)
	code, err := Compile(Options{SourcePath: path, Target: target.Go{}})
	require.NoError(t, err)
	require.Contains(t, code, "func main()")
}

// programFixture is one case loaded from testdata/driver_programs.yaml.
type programFixture struct {
	Name         string `yaml:"name"`
	Source       string `yaml:"source"`
	WantErr      bool   `yaml:"wantErr"`
	WantContains string `yaml:"wantContains"`
}

type programFixtureFile struct {
	Programs []programFixture `yaml:"programs"`
}

func TestCompileFixturePrograms(t *testing.T) {
	data, err := os.ReadFile("../../testdata/driver_programs.yaml")
	require.NoError(t, err)

	var file programFixtureFile
	require.NoError(t, yaml.Unmarshal(data, &file))

	for _, tc := range file.Programs {
		t.Run(tc.Name, func(t *testing.T) {
			path := writeSource(t, tc.Source)
			code, err := Compile(Options{SourcePath: path, Target: target.C{}})
			if tc.WantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.WantContains != "" {
				require.Contains(t, code, tc.WantContains)
			}
		})
	}
}

func TestCompileAcrossAllTargets(t *testing.T) {
	path := writeSource(t, `
fn main() {
	let total = 0;
	for i in 0..5 {
		total += i;
	}
}
`)
	for _, tc := range []struct {
		name string
		t    target.Target
		want string
	}{
		{"c", target.C{}, "int main(void)"},
		{"go", target.Go{}, "func main()"},
		{"ruby", target.Rb{}, "begin"},
		{"typescript", target.TS{}, "async function okMain"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, err := Compile(Options{SourcePath: path, Target: tc.t})
			require.NoError(t, err)
			require.Contains(t, code, tc.want)
		})
	}
}
