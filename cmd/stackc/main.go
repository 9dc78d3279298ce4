// Command stackc compiles source-language .ok files to C, Go, Ruby, or
// TypeScript, following the teacher's cobra-based CLI shape
// (cmd/ralph-cc/main.go) adapted to this compiler's own stage names.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stackc-go/stackc/internal/docgen"
	"github.com/stackc-go/stackc/internal/driver"
	"github.com/stackc-go/stackc/internal/hir"
	"github.com/stackc-go/stackc/internal/mir"
	"github.com/stackc-go/stackc/internal/parser"
	"github.com/stackc-go/stackc/internal/target"
)

var (
	targetFlag string
	dumpTIR    bool
	dumpHIR    bool
	dumpMIR    bool
	dumpASM    bool
	docOutput  string

	// lastSourcePath records the file most recently handed to a
	// subcommand, so printError can re-read it to render a parser.Error's
	// full gutter-and-caret Detail.
	lastSourcePath string
)

func main() {
	root := &cobra.Command{
		Use:   "stackc",
		Short: "Compile .ok source files to a stack-VM target language",
	}

	compileCmd := &cobra.Command{
		Use:   "c FILE",
		Short: "Compile FILE and run the selected target's host toolchain",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	compileCmd.Flags().StringVarP(&targetFlag, "target", "", "c", "output language: c, g (go), r (ruby), t (typescript)")
	compileCmd.Flags().BoolVar(&dumpTIR, "dtir", false, "dump the TIR tree before macro expansion")
	compileCmd.Flags().BoolVar(&dumpHIR, "dhir", false, "dump the HIR tree after TIR compilation")
	compileCmd.Flags().BoolVar(&dumpMIR, "dmir", false, "dump the MIR tree after HIR compilation")
	compileCmd.Flags().BoolVar(&dumpASM, "dasm", false, "dump the assembled stack-VM program")

	docCmd := &cobra.Command{
		Use:   "doc FILE",
		Short: "Render FILE's declarations as documentation",
		Args:  cobra.ExactArgs(1),
		RunE:  runDoc,
	}
	docCmd.Flags().StringVarP(&docOutput, "output", "o", "", "write output to this path instead of stdout")

	root.AddCommand(compileCmd, docCmd)

	if err := root.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError reports err, rendering the fuller gutter-and-caret snippet
// (diag.Format, via parser.Error.Detail) when the failure is a parse
// error and the source file is still readable.
func printError(err error) {
	var perr *parser.Error
	if errors.As(err, &perr) && lastSourcePath != "" {
		if contents, readErr := os.ReadFile(lastSourcePath); readErr == nil {
			fmt.Fprintln(os.Stderr, color.RedString("error:"))
			fmt.Fprintln(os.Stderr, perr.Detail(string(contents)))
			return
		}
	}
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
}

func pickTarget(name string) (target.Target, error) {
	switch name {
	case "c":
		return target.C{}, nil
	case "g", "go":
		return target.Go{}, nil
	case "r", "rb", "ruby":
		return target.Rb{}, nil
	case "t", "ts", "typescript":
		return target.TS{}, nil
	default:
		return nil, fmt.Errorf("unknown target %q (want c, g, r, or t)", name)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	lastSourcePath = args[0]
	t, err := pickTarget(targetFlag)
	if err != nil {
		return err
	}

	if dumpTIR {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		tirProg, err := parser.Parse(string(contents))
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", tirProg)
	}

	if dumpHIR || dumpMIR {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		hirProg, err := driver.ParseAndBuild(string(contents))
		if err != nil {
			return err
		}
		if dumpHIR {
			fmt.Printf("%+v\n", hirProg)
		}
		if dumpMIR {
			mirProg, err := hirProg.Compile(filepath.Dir(args[0]), t, map[string]hir.Constant{})
			if err != nil {
				return err
			}
			mir.NewPrinter(os.Stdout).PrintProgram(mirProg)
		}
	}

	opts := driver.Options{SourcePath: args[0], Target: t, Constants: map[string]hir.Constant{}}

	if dumpMIR || dumpASM {
		code, err := driver.Compile(opts)
		if err != nil {
			return err
		}
		if dumpASM {
			fmt.Println(code)
		}
		return nil
	}

	return driver.CompileAndEmit(opts)
}

func runDoc(cmd *cobra.Command, args []string) error {
	lastSourcePath = args[0]
	contents, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	tirProg, err := parser.Parse(string(contents))
	if err != nil {
		return err
	}

	var out *os.File = os.Stdout
	if docOutput != "" {
		f, err := os.Create(docOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return docgen.WriteTo(tirProg, docOutput, out)
}
