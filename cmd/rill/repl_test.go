package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rill-lang/rill/internal/opt"
)

func TestSessionEvalHonorsOptLevel(t *testing.T) {
	defs := "def double(x):\n    return x * 2\n"

	for _, lvl := range []opt.Level{opt.O0, opt.O1, opt.O2, opt.O3} {
		t.Run(lvl.String(), func(t *testing.T) {
			var out bytes.Buffer
			s := &session{opts: options{level: lvl}, out: &out}
			if err := s.addDefs(defs); err != nil {
				t.Fatalf("addDefs: %v", err)
			}
			if err := s.eval("print(double(4))"); err != nil {
				t.Fatalf("eval: %v", err)
			}
			if out.String() != "8\n" {
				t.Errorf("output = %q, want %q", out.String(), "8\n")
			}
		})
	}
}

func TestSessionEvalStatementSequence(t *testing.T) {
	var out bytes.Buffer
	s := &session{opts: options{level: opt.O2}, out: &out}
	err := s.eval("x = 3\nprint(x + 4)")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out.String() != "7\n" {
		t.Errorf("output = %q, want %q", out.String(), "7\n")
	}
}

func TestSessionEvalReportsTypeErrors(t *testing.T) {
	s := &session{opts: options{level: opt.O0}, out: &bytes.Buffer{}}
	err := s.eval("print(missing())")
	if err == nil {
		t.Fatal("expected a type error")
	}
	if want := "Undefined function: missing"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %v, want it to mention %q", err, want)
	}
}

func TestSessionResetViaCommand(t *testing.T) {
	s := &session{opts: options{level: opt.O0}, out: &bytes.Buffer{}}
	if err := s.addDefs("def one():\n    return 1\n"); err != nil {
		t.Fatalf("addDefs: %v", err)
	}
	s.command(":reset")
	if len(s.defs) != 0 {
		t.Errorf("defs = %v, want none after reset", s.defs)
	}
}
