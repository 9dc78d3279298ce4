// Package driver orchestrates the whole pipeline: parse -> tir.Compile ->
// hir.Compile -> mir.TypeCheck -> mir.Assemble -> vm.Assemble ->
// target.Compile, concatenating each backend's CorePrelude/Std/body/
// CorePostlude the way original_source/src/main.rs does (grounded on its
// top-level `compile` function).
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stackc-go/stackc/internal/hir"
	"github.com/stackc-go/stackc/internal/parser"
	"github.com/stackc-go/stackc/internal/target"
)

func init() {
	// Breaks the hir<->driver import cycle (see hir/compile.go's doc
	// comment on ParseAndBuild): driver is the only package that can see
	// both the parser and hir, so it supplies hir's recursive
	// include-resolution hook at package-init time.
	hir.ParseAndBuild = ParseAndBuild
}

// ParseAndBuild parses source text all the way through TIR to HIR,
// matching the signature hir.compileInclude expects for a recursively
// included file.
func ParseAndBuild(source string) (*hir.Program, error) {
	tirProg, err := parser.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tirProg.Compile()
}

// Result holds the emitted host-language source text of one compilation.
// It carries no intermediate representation; Compile returns the text
// directly and nothing in the module builds a Result.
type Result struct {
	Source string
}

// Options configures one compilation run.
type Options struct {
	// SourcePath is the entry .ok file to compile.
	SourcePath string
	// Target selects the host language to emit.
	Target target.Target
	// Constants seeds the compile-time constant environment; may be nil.
	// cmd/stackc always passes an empty map.
	Constants map[string]hir.Constant
}

// Compile runs the full pipeline over the file at opts.SourcePath and
// returns the emitted host-language source text, ready to hand to
// opts.Target.Compile.
func Compile(opts Options) (string, error) {
	contents, err := os.ReadFile(opts.SourcePath)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", opts.SourcePath, err)
	}

	hirProg, err := ParseAndBuild(string(contents))
	if err != nil {
		return "", err
	}

	constants := opts.Constants
	if constants == nil {
		constants = map[string]hir.Constant{}
	}
	cwd := filepath.Dir(opts.SourcePath)
	mirProg, err := hirProg.Compile(cwd, opts.Target, constants)
	if err != nil {
		return "", fmt.Errorf("hir compile: %w", err)
	}

	if err := mirProg.TypeCheck(); err != nil {
		return "", fmt.Errorf("type error: %w", err)
	}

	vmProg, err := mirProg.Assemble()
	if err != nil {
		return "", fmt.Errorf("mir assemble: %w", err)
	}

	body, err := vmProg.Assemble(opts.Target)
	if err != nil {
		return "", fmt.Errorf("asm assemble: %w", err)
	}

	var out string
	out += opts.Target.CorePrelude()
	if std := opts.Target.Std(); std != "" {
		out += std
	}
	out += body
	out += opts.Target.CorePostlude()
	return out, nil
}

// CompileAndEmit runs Compile and hands the result to the target's own
// Compile step (writing + invoking any host toolchain the backend uses).
func CompileAndEmit(opts Options) error {
	code, err := Compile(opts)
	if err != nil {
		return err
	}
	return opts.Target.Compile(code)
}
