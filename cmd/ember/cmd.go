// Command ember is the collaborator spec.md §1/§6 deliberately keeps
// outside the core: it owns the process entry point, the REPL loop, file
// reading, and command-line parsing, and hands the core a UTF-8 source
// buffer plus byte sinks for standard output and standard error.
//
// Grounded on github.com/mna/mainer's Cmd/Stdio/ExitCode/Parser pattern,
// the same collaborator shape mna-nenuphar's cmd/nenuphar +
// internal/maincmd use, simplified down to the three subcommands this
// core actually needs (run a script, a REPL, and disassembly) in place of
// nenuphar's tokenize/parse/resolve pipeline stages. The REPL's
// ":quit"/":exit" convention is adapted from the teacher's
// (kristofer-smog) cmd/smog runREPL; each input line is interpreted on its
// own, with no multi-line buffering.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"
	"github.com/sirupsen/logrus"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/vm"
)

const binName = "ember"

// Exit codes follow spec.md §6's reference convention: 0 on success, 65 on
// a compile error, 70 on a runtime error (sysexits.h's EX_DATAERR and
// EX_SOFTWARE, as the original_source reference also uses).
const (
	exitCompileError mainer.ExitCode = 65
	exitRuntimeError mainer.ExitCode = 70
)

var (
	shortUsage = fmt.Sprintf(`usage: %s [<option>...] [run <path> | disassemble <path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode compiler and VM for a dynamically typed, class-based scripting
language.

The <command> can be one of:
       repl                      Start an interactive read-eval-print
                                 loop (the default with no command).
       run <path>                Compile and execute a script file.
       disassemble <path>        Print the compiled bytecode for a
                                 script file instead of running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the mainer.Command implementation: SetArgs/SetFlags/Validate let
// mainer.Parser populate it from argv, and Main dispatches to the chosen
// subcommand.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate implements spec.md's external-interface split: a bare
// invocation (or "repl") starts the REPL, "run <path>" and
// "disassemble <path>" require exactly one path argument.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return nil // REPL
	}
	switch c.args[0] {
	case "repl":
		if len(c.args) != 1 {
			return errors.New("repl: no arguments expected")
		}
	case "run", "disassemble":
		if len(c.args) != 2 {
			return fmt.Errorf("%s: exactly one file path is required", c.args[0])
		}
	default:
		if len(c.args) != 1 {
			return errors.New("expected a single script path")
		}
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	switch {
	case len(c.args) == 0 || c.args[0] == "repl":
		runREPL(stdio)
		return mainer.Success
	case c.args[0] == "run":
		return runFile(stdio, c.args[1])
	case c.args[0] == "disassemble":
		return disassembleFile(stdio, c.args[1])
	default:
		return runFile(stdio, c.args[0])
	}
}

// newLogger gives the compiler and VM a logrus logger that only surfaces
// diagnostics when EMBER_DEBUG is set, so normal runs stay quiet.
func newLogger() *logrus.Logger {
	log := logrus.New()
	if os.Getenv("EMBER_DEBUG") == "" {
		log.SetLevel(logrus.PanicLevel + 1)
	} else {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func runFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "ember: %s\n", err)
		return exitRuntimeError
	}

	machine := vm.New(stdio.Stdout, stdio.Stderr, newLogger())
	if err := machine.Interpret(string(source)); err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return exitCompileError
		}
		return exitRuntimeError
	}
	return mainer.Success
}

// disassembleFile compiles path and prints its bytecode instead of
// running it — a developer convenience, not a persisted format (spec.md
// §6: "Persisted state: none").
func disassembleFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "ember: %s\n", err)
		return exitRuntimeError
	}

	collector := gc.New(gc.DefaultInitialThreshold, newLogger())
	fn, err := compiler.Compile(string(source), collector, stdio.Stderr, newLogger())
	if err != nil {
		return exitCompileError
	}
	fmt.Fprint(stdio.Stdout, bytecode.Disassemble(fn.Chunk, "script"))
	return mainer.Success
}

// runREPL implements spec.md §6's REPL collaborator mode: read-line, call
// interpret on each line, loop until EOF. A fresh VM persists across
// lines so top-level globals remain visible to later input, the way the
// teacher's runREPL kept one VM and one compiler alive for the session.
func runREPL(stdio mainer.Stdio) {
	fmt.Fprintf(stdio.Stdout, "%s %s\n", binName, version)
	fmt.Fprintln(stdio.Stdout, "Type ':quit' to exit.")

	machine := vm.New(stdio.Stdout, stdio.Stderr, newLogger())
	scanner := bufio.NewScanner(stdio.Stdin)

	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":exit":
			return
		}
		machine.Interpret(line)
	}
}
