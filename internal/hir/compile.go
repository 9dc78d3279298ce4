package hir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stackc-go/stackc/internal/mir"
	"github.com/stackc-go/stackc/internal/target"
)

// Error is the sentinel error type for HIR compilation failures, mirroring
// original_source/src/hir.rs's HirError enum.
type Error struct{ Msg string }

func (e *Error) Error() string { return e.Msg }

func errf(format string, args ...interface{}) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Compile lowers a HIR program to MIR, resolving constants, conditional
// compilation, asserts, and include/extern declarations relative to cwd.
// constants accumulates across included files, matching the original's
// single shared BTreeMap threaded by mutable reference through every
// recursive include/conditional-compilation call.
func (p *Program) Compile(cwd string, t target.Target, constants map[string]Constant) (*mir.Program, error) {
	var structs []mir.Structure
	var funcs []mir.Function
	heapSize := p.HeapSize
	var stdRequired *bool

	for _, d := range p.Decls {
		if c, ok := d.(ConstDecl); ok {
			constants[c.Name] = c.Value
		}
	}

	for _, d := range p.Decls {
		switch d := d.(type) {
		case FuncDecl:
			funcs = append(funcs, toMIRFunction(d.Func))

		case StructDecl:
			s, err := toMIRStructure(d.Struct, constants, t)
			if err != nil {
				return nil, err
			}
			structs = append(structs, s)

		case RequireStdDecl:
			if stdRequired != nil && !*stdRequired {
				return nil, errf("conflicting require_std and no_std declarations")
			}
			if !t.IsStandard() {
				return nil, errf("target %q has no standard library", string(t.GetName()))
			}
			v := true
			stdRequired = &v

		case NoStdDecl:
			if stdRequired != nil && *stdRequired {
				return nil, errf("conflicting require_std and no_std declarations")
			}
			v := false
			stdRequired = &v

		case AssertDecl:
			v, err := d.Cond.Eval(constants, t)
			if err != nil {
				return nil, err
			}
			if v == 0 {
				return nil, errf("failed assertion %q", d.Cond.String())
			}

		case ExternDecl:
			// Extern declarations carry no MIR representation of their
			// own (spec §4.4): the foreign name is resolved directly at
			// MIR->ASM lowering via vm.ForeignCall. Recording it here
			// would duplicate what the call site already encodes.

		case ErrorDecl:
			return nil, errf("%s", d.Message)

		case IncludeDecl:
			included, err := compileInclude(cwd, d.Filename, t, constants)
			if err != nil {
				return nil, err
			}
			structs = append(structs, included.Structs...)
			funcs = append(funcs, included.Funcs...)
			if included.HeapSize > heapSize {
				heapSize = included.HeapSize
			}

		case IfDecl:
			v, err := d.Cond.Eval(constants, t)
			if err != nil {
				return nil, err
			}
			if v != 0 {
				body := d.Body
				sub, err := body.Compile(cwd, t, constants)
				if err != nil {
					return nil, err
				}
				structs = append(structs, sub.Structs...)
				funcs = append(funcs, sub.Funcs...)
			}

		case IfElseDecl:
			v, err := d.Cond.Eval(constants, t)
			if err != nil {
				return nil, err
			}
			branch := d.ElseBody
			if v != 0 {
				branch = d.ThenBody
			}
			sub, err := branch.Compile(cwd, t, constants)
			if err != nil {
				return nil, err
			}
			structs = append(structs, sub.Structs...)
			funcs = append(funcs, sub.Funcs...)

		case HeapSizeDecl:
			heapSize = d.Size
		}
	}

	return &mir.Program{Structs: structs, Funcs: funcs, HeapSize: heapSize}, nil
}

// includeStack holds the absolute paths of the included files currently
// being compiled, innermost last.
var includeStack = map[string]bool{}

// compileInclude resolves filename relative to cwd (spec §4.4: "if
// src/main.ok includes lib/all.ok, the included file is compiled with
// cwd=src/lib"), detecting circular includes via includeStack, which
// holds every included file still being compiled — adapted from
// pkg/cpp/include.go's IncludeResolver, generalized from textual
// inclusion to declaration-tree splicing.
func compileInclude(cwd, filename string, t target.Target, constants map[string]Constant) (*mir.Program, error) {
	path := filepath.Join(cwd, filename)
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errf("could not include file %q: %v", filename, err)
	}
	if includeStack[abs] {
		return nil, errf("circular include of %q", filename)
	}
	includeStack[abs] = true
	defer delete(includeStack, abs)
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errf("could not include file %q: %v", filename, err)
	}
	included, err := ParseAndBuild(string(contents))
	if err != nil {
		return nil, errf("parsing included file %q: %v", filename, err)
	}
	return included.Compile(filepath.Dir(path), t, constants)
}

// ParseAndBuild is supplied by the driver package (its parser -> tir ->
// hir pipeline); it is a variable rather than a direct import to avoid a
// dependency cycle (hir includes files that must themselves be parsed and
// lowered through tir before reaching hir.Program).
var ParseAndBuild = func(source string) (*Program, error) {
	return nil, errf("include resolution not wired: driver must set hir.ParseAndBuild")
}

func toMIRFunction(f Function) mir.Function {
	var args []mir.Param
	for _, a := range f.Args {
		args = append(args, mir.Param{Name: a.Name, Type: ToMIRType(a.Type)})
	}
	return mir.Function{
		Name:       f.Name,
		Args:       args,
		ReturnType: ToMIRType(f.ReturnType),
		Body:       f.Body,
	}
}

func toMIRStructure(s Structure, constants map[string]Constant, t target.Target) (mir.Structure, error) {
	var methods []mir.Function
	for _, m := range s.Methods {
		methods = append(methods, toMIRFunction(m))
	}
	return mir.Structure{
		Name:    s.Name,
		Members: s.Members,
		Methods: methods,
	}, nil
}
