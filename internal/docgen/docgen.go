// Package docgen implements the "doc" subcommand's documentation
// generator: a concrete stand-in for original_source/src/bin.rs's
// generate_docs(contents, input_file), whose own body fell outside the
// kept source set. It walks a parsed tir.Program collecting each
// function's and structure's docstring (spec: "Function — name,
// optional docstring, ..."), parameter list, and return type, plus any
// standalone `##` documentation headers, and renders the result either
// as indented plain text or as a structured YAML document tree.
package docgen

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stackc-go/stackc/internal/tir"
)

// ParamDoc is one documented function parameter.
type ParamDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// FunctionDoc documents one function or structure method.
type FunctionDoc struct {
	Name       string     `yaml:"name"`
	Doc        string     `yaml:"doc,omitempty"`
	Params     []ParamDoc `yaml:"params,omitempty"`
	ReturnType string     `yaml:"returns"`
}

// MemberDoc is one documented structure field.
type MemberDoc struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StructureDoc documents one structure: its members and its methods.
type StructureDoc struct {
	Name    string        `yaml:"name"`
	Doc     string        `yaml:"doc,omitempty"`
	Members []MemberDoc   `yaml:"members,omitempty"`
	Methods []FunctionDoc `yaml:"methods,omitempty"`
}

// Entry is one documented top-level item, in source order. Exactly one
// of Header, Function, or Structure is set.
type Entry struct {
	Header    string        `yaml:"header,omitempty"`
	Function  *FunctionDoc  `yaml:"function,omitempty"`
	Structure *StructureDoc `yaml:"structure,omitempty"`
}

// Doc is the full documentation tree for a program.
type Doc struct {
	Entries []Entry `yaml:"entries"`
}

// Collect walks prog's declarations in source order, including into
// conditional-compilation bodies (tir.IfDecl/IfElseDecl), and builds the
// Doc tree. Declaration kinds with no documentable surface (macros,
// constants, assertions, extern/include/memory/require_std/no_std
// directives) are skipped.
func Collect(prog *tir.Program) Doc {
	var doc Doc
	collectDecls(prog.Decls, &doc)
	return doc
}

func collectDecls(decls []tir.Declaration, doc *Doc) {
	for _, d := range decls {
		switch d := d.(type) {
		case tir.DocHeaderDecl:
			doc.Entries = append(doc.Entries, Entry{Header: d.Text})
		case tir.FuncDecl:
			fd := functionDoc(d.Func)
			doc.Entries = append(doc.Entries, Entry{Function: &fd})
		case tir.StructDecl:
			sd := structureDoc(d.Struct)
			doc.Entries = append(doc.Entries, Entry{Structure: &sd})
		case tir.IfDecl:
			collectDecls(d.Body.Decls, doc)
		case tir.IfElseDecl:
			collectDecls(d.ThenBody.Decls, doc)
			collectDecls(d.ElseBody.Decls, doc)
		}
	}
}

func functionDoc(fn tir.Function) FunctionDoc {
	var params []ParamDoc
	for _, p := range fn.Params {
		params = append(params, ParamDoc{Name: p.Name, Type: typeString(p.Type)})
	}
	return FunctionDoc{
		Name:       fn.Name,
		Doc:        fn.Doc,
		Params:     params,
		ReturnType: typeString(fn.ReturnType),
	}
}

func structureDoc(s tir.Structure) StructureDoc {
	var members []MemberDoc
	for _, m := range s.Members {
		members = append(members, MemberDoc{Name: m.Name, Type: typeString(m.Type)})
	}
	var methods []FunctionDoc
	for _, m := range s.Methods {
		methods = append(methods, functionDoc(m))
	}
	return StructureDoc{Name: s.Name, Doc: s.Doc, Members: members, Methods: methods}
}

func typeString(t tir.Type) string {
	switch t := t.(type) {
	case tir.TVoid:
		return "void"
	case tir.TFloat:
		return "num"
	case tir.TBool:
		return "bool"
	case tir.TChar:
		return "char"
	case tir.TStructure:
		return t.Name
	case tir.TPointer:
		return "&" + typeString(t.Inner)
	default:
		return fmt.Sprintf("%T", t)
	}
}

// Render writes doc as indented plain text: one line per function
// signature or structure header, with docstrings and members/methods
// indented beneath.
func Render(doc Doc, w io.Writer) error {
	for _, e := range doc.Entries {
		switch {
		case e.Header != "":
			fmt.Fprintf(w, "# %s\n\n", e.Header)
		case e.Function != nil:
			renderFunction(w, "", *e.Function)
			fmt.Fprintln(w)
		case e.Structure != nil:
			renderStructure(w, *e.Structure)
			fmt.Fprintln(w)
		}
	}
	return nil
}

func renderFunction(w io.Writer, indent string, fn FunctionDoc) {
	var params []string
	for _, p := range fn.Params {
		params = append(params, fmt.Sprintf("%s: %s", p.Name, p.Type))
	}
	fmt.Fprintf(w, "%sfn %s(%s) -> %s\n", indent, fn.Name, strings.Join(params, ", "), fn.ReturnType)
	if fn.Doc != "" {
		for _, line := range strings.Split(fn.Doc, "\n") {
			fmt.Fprintf(w, "%s    %s\n", indent, line)
		}
	}
}

func renderStructure(w io.Writer, s StructureDoc) {
	fmt.Fprintf(w, "struct %s\n", s.Name)
	if s.Doc != "" {
		for _, line := range strings.Split(s.Doc, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	for _, m := range s.Members {
		fmt.Fprintf(w, "    %s: %s\n", m.Name, m.Type)
	}
	for _, m := range s.Methods {
		renderFunction(w, "    ", m)
	}
}

// RenderYAML writes doc as a structured YAML document tree.
func RenderYAML(doc Doc, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(doc)
}

// WriteTo renders prog's documentation to w, choosing YAML when
// outputPath ends in .yaml/.yml and plain text otherwise (including for
// the empty outputPath, i.e. stdout).
func WriteTo(prog *tir.Program, outputPath string, w io.Writer) error {
	doc := Collect(prog)
	if strings.HasSuffix(outputPath, ".yaml") || strings.HasSuffix(outputPath, ".yml") {
		return RenderYAML(doc, w)
	}
	return Render(doc, w)
}
