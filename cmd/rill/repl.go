package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/xyproto/env/v2"

	"github.com/rill-lang/rill/internal/checker"
	"github.com/rill-lang/rill/internal/mir"
	"github.com/rill-lang/rill/internal/opt"
	"github.com/rill-lang/rill/internal/parser"
)

const (
	historyFile = ".rill_history"
	promptMain  = ">>> "
	promptCont  = "... "
	banner      = "Rill REPL - Ctrl+D to exit, :help for commands."
	replHelp    = `REPL commands:
  :help            Show this help
  :quit / :exit    Exit the REPL
  :load <file>     Load function definitions from a file
  :ir              Print the IR of the current session
  :reset           Forget all definitions
`
)

// session keeps the function definitions entered so far. Each evaluation
// compiles them together with the new statement wrapped in a fresh entry
// function, so the REPL reuses the whole pipeline unchanged.
type session struct {
	defs []string
	opts options
	out  io.Writer
}

func runREPL(opts options) error {
	fmt.Println(banner)

	histPath := filepath.Join(homeDir(), historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{opts: opts, out: os.Stdout}
	for {
		code, ok := readUnit(ln)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if done := s.command(trimmed); done {
				break
			}
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
			continue
		}

		if err := s.eval(code); err != nil {
			printError(err)
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// readUnit collects one input unit: a single line, or a suite opened by a
// trailing colon and closed by a blank continuation line.
func readUnit(ln *liner.State) (string, bool) {
	first, err := ln.Prompt(promptMain)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(strings.TrimSpace(first), ":") {
		return first, true
	}

	lines := []string{first}
	for {
		next, err := ln.Prompt(promptCont)
		if err != nil || strings.TrimSpace(next) == "" {
			break
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), true
}

func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":help":
		fmt.Print(replHelp)
	case ":quit", ":exit":
		return true
	case ":reset":
		s.defs = nil
		fmt.Println("session reset")
	case ":ir":
		m, err := s.compile("")
		if err != nil {
			printError(err)
			break
		}
		fmt.Print(m.String())
	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <file>")
			break
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			printError(err)
			break
		}
		if err := s.addDefs(string(src)); err != nil {
			printError(err)
		}
	default:
		fmt.Printf("unknown command %s (:help for help)\n", fields[0])
	}
	return false
}

// eval runs one input unit. Definitions join the session; statements run
// inside a throwaway entry function.
func (s *session) eval(code string) error {
	if strings.HasPrefix(strings.TrimSpace(code), "def ") {
		return s.addDefs(code)
	}

	body := "    " + strings.Join(strings.Split(code, "\n"), "\n    ")
	src := s.source() + "def main():\n" + body + "\n"

	prog, err := parser.ParseSource(src)
	if err != nil {
		return err
	}
	tc := checker.New()
	rep := tc.CheckProgram(prog)
	if !rep.OK() {
		return fmt.Errorf("%s", strings.Join(rep.Errors, "\n"))
	}
	m, err := mir.Lower(prog)
	if err != nil {
		return err
	}
	// The session honors the -O flag the same way file compilation does.
	if s.opts.level != opt.O0 {
		opt.NewManager(s.opts.level, tc.Signatures()).Optimize(m)
	}

	var out bytes.Buffer
	if _, err := mir.NewInterp(&out).Run(m, "main", nil); err != nil {
		return err
	}
	fmt.Fprint(s.out, out.String())
	return nil
}

func (s *session) addDefs(code string) error {
	candidate := append(append([]string(nil), s.defs...), code)
	if _, err := compileDefs(candidate); err != nil {
		return err
	}
	s.defs = candidate
	return nil
}

func (s *session) compile(extra string) (*mir.Module, error) {
	src := s.source() + extra
	if src == "" {
		return &mir.Module{}, nil
	}
	prog, err := parser.ParseSource(src)
	if err != nil {
		return nil, err
	}
	m, err := mir.Lower(prog)
	if err != nil {
		return nil, err
	}
	if s.opts.level != opt.O0 {
		tc := checker.New()
		tc.CheckProgram(prog)
		opt.NewManager(s.opts.level, tc.Signatures()).Optimize(m)
	}
	return m, nil
}

func (s *session) source() string {
	if len(s.defs) == 0 {
		return ""
	}
	return strings.Join(s.defs, "\n") + "\n"
}

func compileDefs(defs []string) (*mir.Module, error) {
	src := strings.Join(defs, "\n") + "\n"
	prog, err := parser.ParseSource(src)
	if err != nil {
		return nil, err
	}
	rep := checker.New().CheckProgram(prog)
	if !rep.OK() {
		return nil, fmt.Errorf("%s", strings.Join(rep.Errors, "\n"))
	}
	return mir.Lower(prog)
}

func printError(err error) {
	if env.Bool("RILL_NO_COLOR") {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("\x1b[31merror:\x1b[0m %v\n", err)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
