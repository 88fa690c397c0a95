// Package main provides the entry point for the Rill compiler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xyproto/env/v2"

	"github.com/rill-lang/rill/internal/checker"
	"github.com/rill-lang/rill/internal/mir"
	"github.com/rill-lang/rill/internal/opt"
	"github.com/rill-lang/rill/internal/parser"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

type options struct {
	level       opt.Level
	optReport   bool
	timing      bool
	noTypecheck bool
	typeErrors  bool
	emitIR      bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		optLevel    = flag.String("O", env.Str("RILL_OPT", "0"), "optimization level: 0|1|2|3")
		optReport   = flag.Bool("opt-report", false, "show optimization report")
		timing      = flag.Bool("timing", false, "show compilation timing")
		noTypecheck = flag.Bool("no-typecheck", false, "disable type checking")
		typeErrors  = flag.Bool("type-errors", false, "show detailed type error information")
		emitIR      = flag.Bool("emit-ir", false, "emit textual IR instead of running")
		watch       = flag.Bool("watch", false, "recompile on file changes")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("Rill Compiler v%s (%s)\n", version, commit)
		return
	}
	if *showHelp {
		showUsage()
		return
	}

	level, err := opt.ParseLevel(*optLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts := options{
		level:       level,
		optReport:   *optReport,
		timing:      *timing,
		noTypecheck: *noTypecheck,
		typeErrors:  *typeErrors,
		emitIR:      *emitIR,
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input file specified")
		showUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "repl":
		if err := runREPL(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: run needs a source file")
			os.Exit(1)
		}
		if err := compileAndRun(args[1], opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		file := args[0]
		if *watch {
			if err := watchAndCompile(file, opts); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
		if err := compileFile(file, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func showUsage() {
	fmt.Println("Rill Compiler - Python-inspired Language")
	fmt.Println()
	fmt.Println("Usage: rill [OPTIONS] <source_file>")
	fmt.Println("       rill [OPTIONS] run <source_file>")
	fmt.Println("       rill repl")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -O <n>           Optimization level 0-3 (default 0, env RILL_OPT)")
	fmt.Println("  --opt-report     Show optimization report")
	fmt.Println("  --timing         Show compilation timing")
	fmt.Println("  --no-typecheck   Disable type checking")
	fmt.Println("  --type-errors    Show detailed type error information")
	fmt.Println("  --emit-ir        Emit textual IR")
	fmt.Println("  --watch          Recompile on file changes")
	fmt.Println("  --version        Show version information")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  rill -O 2 program.rill")
	fmt.Println("  rill -O 3 --opt-report program.rill")
	fmt.Println("  rill --emit-ir program.rill")
	fmt.Println("  rill run program.rill")
}

// compilation holds the artifacts of one successful pipeline run.
type compilation struct {
	module *mir.Module
	mgr    *opt.Manager
}

// compileSource runs the full pipeline over one source text. Type errors
// are reported but do not abort; parser errors do.
func compileSource(source, name string, opts options) (*compilation, error) {
	show := func(format string, a ...any) {
		if opts.timing {
			fmt.Printf(format, a...)
		}
	}
	show("=== Rill Compiler Performance Analysis ===\n")

	if err := checkVersionDirective(source); err != nil {
		return nil, err
	}

	start := time.Now()
	prog, err := parser.ParseSource(source)
	if err != nil {
		return nil, err
	}
	show("Parsing: %.3f ms\n", msSince(start))

	tc := checker.New()
	if !opts.noTypecheck {
		start = time.Now()
		report := tc.CheckProgram(prog)
		show("Type Checking: %.3f ms\n", msSince(start))

		if !report.OK() {
			if opts.typeErrors {
				fmt.Println("\nType Checking Results:")
				for _, e := range report.Errors {
					fmt.Println("Error: " + e)
				}
				for _, w := range report.Warnings {
					fmt.Println("Warning: " + w)
				}
			}
		} else if opts.typeErrors {
			fmt.Println("Type checking passed successfully")
		}
	}

	start = time.Now()
	module, err := mir.Lower(prog)
	if err != nil {
		return nil, err
	}
	module.Name = name
	show("Code Generation: %.3f ms\n", msSince(start))

	mgr := opt.NewManager(opts.level, tc.Signatures())
	if opts.level != opt.O0 {
		start = time.Now()
		mgr.Optimize(module)
		show("Optimization: %.3f ms\n", msSince(start))
	}
	if opts.optReport {
		mgr.Report(os.Stdout)
	}
	return &compilation{module: module, mgr: mgr}, nil
}

func compileFile(path string, opts options) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}

	total := time.Now()
	c, err := compileSource(string(source), filepath.Base(path), opts)
	if err != nil {
		return err
	}

	if opts.emitIR {
		fmt.Println("\n=== Generated IR ===")
		fmt.Print(c.module.String())
	} else if !opts.timing {
		fmt.Printf("Successfully compiled '%s' with -%s\n", path, opts.level)
	}

	if opts.timing {
		fmt.Printf("Total Compilation: %.3f ms\n", msSince(total))
		fmt.Println("===========================================")
	}
	return nil
}

func compileAndRun(path string, opts options) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}
	c, err := compileSource(string(source), filepath.Base(path), opts)
	if err != nil {
		return err
	}
	if c.module.Find("main") == nil {
		return fmt.Errorf("%s has no main function", path)
	}
	_, err = mir.NewInterp(os.Stdout).Run(c.module, "main", nil)
	return err
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Nanoseconds()) / 1e6
}
