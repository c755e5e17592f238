package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"fortio.org/log"
	"github.com/peterh/liner"

	microsel "github.com/moon44432/interpreter-tutorial"
)

const appName = "msel"

var (
	banner   = fmt.Sprintf("MicroSEL %s Interactive Shell\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.", microsel.Version)
	helpText = `
REPL commands:
  :quit    Exit the REPL
  :help    Show this help
  :reset   Forget all variables and functions
  :stack   Show the symbol table and stack
`
)

type palette struct{ enabled bool }

func (p palette) wrap(code, s string) string {
	if !p.enabled {
		return s
	}
	return code + s + "\x1b[0m"
}

func (p palette) red(s string) string   { return p.wrap("\x1b[31m", s) }
func (p palette) green(s string) string { return p.wrap("\x1b[32m", s) }
func (p palette) blue(s string) string  { return p.wrap("\x1b[94m", s) }

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "config file (default ~/"+microsel.DefaultConfigName+")")
	logLevel := fs.String("log-level", "", "log level: debug, verbose, info, warning, error")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := microsel.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return cmdRepl(cfg)
	}
	switch cmd := rest[0]; cmd {
	case "run":
		return cmdRun(cfg, rest[1:])
	case "repl":
		return cmdRepl(cfg)
	case "fmt":
		return cmdFmt(cfg, rest[1:])
	case "tokens":
		return cmdTokens(rest[1:])
	case "ast":
		return cmdAST(cfg, rest[1:])
	case "version":
		fmt.Println(microsel.Version)
		return 0
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		// A lone script path runs it, as in `msel prog.msel`.
		if len(rest) == 1 && !strings.HasPrefix(cmd, "-") {
			if _, err := os.Stat(cmd); err == nil {
				return cmdRun(cfg, rest)
			}
		}
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		return 2
	}
}

func setupLogging(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := log.ValidateLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLogLevel(lvl)
	return nil
}

func usage() {
	fmt.Printf(`MicroSEL %s (built %s)

Usage:
  %s [--config file] [--log-level lvl] [command]

Commands:
  (none) | repl               Start the interactive shell.
  run <file>                  Run a script.
  fmt [-w] [--check] <file>   Print (or rewrite) files in canonical form.
  tokens <file>               Dump the token stream of a file.
  ast <file>                  Dump the syntax tree of a file as JSON.
  version                     Print the version.

`, microsel.Version, microsel.BuildDate, appName)
}

func newInterpreter(cfg *microsel.Config, opts ...microsel.Option) *microsel.Interpreter {
	return microsel.NewInterpreter(append([]microsel.Option{microsel.WithConfig(cfg)}, opts...)...)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(cfg *microsel.Config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "You can run only one file at once.\nusage: %s run <file>\n", appName)
		return 2
	}
	file := args[0]
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	ip := newInterpreter(cfg)
	return runScript(ip, file, string(src), os.Stderr)
}

// runScript executes src in full, reporting each failure as a snippet on
// stderr. Top-level values are not echoed.
func runScript(ip *microsel.Interpreter, name, src string, stderr io.Writer) int {
	err := ip.Run(name, strings.NewReader(src), func(r microsel.Report) {
		if r.Err != nil {
			fmt.Fprintln(stderr, microsel.WrapErrorWithName(r.Err, name, src).Error())
		}
	})
	if err != nil {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(cfg *microsel.Config) int {
	if !isTerminal(os.Stdin) {
		return replStream(cfg, os.Stdin, os.Stdout, os.Stderr)
	}

	pal := palette{enabled: cfg.Color && isTerminal(os.Stdout)}
	fmt.Fprintln(os.Stderr, banner)

	histPath := cfg.HistoryFile
	if histPath != "" && !filepath.IsAbs(histPath) {
		if home, err := os.UserHomeDir(); err == nil {
			histPath = filepath.Join(home, histPath)
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	ip := newInterpreter(cfg)
	for {
		code, ok := readByParseProbe(ln, ip.Ops(), cfg.Prompt, cfg.ContinuationPrompt)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(ip, trimmed, os.Stdout); quit {
				return 0
			}
			continue
		}
		evalChunk(ip, "<repl>", code, os.Stdout, os.Stderr, pal)
	}
}

// prompter is the part of *liner.State the REPL reader needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// readByParseProbe accumulates lines until they parse, or fail for a reason
// other than running out of input. The probe parses against a copy of ops so
// operator definitions register only when the chunk really runs.
func readByParseProbe(ln prompter, ops *microsel.OpTable, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, perr := microsel.ParseInteractive(src, ops.Clone()); perr != nil && microsel.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// evalChunk runs one REPL entry, echoing values and definitions.
func evalChunk(ip *microsel.Interpreter, name, code string, stdout, stderr io.Writer, pal palette) {
	_ = ip.Run(name, strings.NewReader(code), func(r microsel.Report) {
		switch r.Kind {
		case microsel.ReportValue:
			fmt.Fprintln(stdout, pal.blue(ip.Format(r.Value)))
		case microsel.ReportDefinition:
			fmt.Fprintln(stdout, pal.green("defined "+r.Name))
		default:
			fmt.Fprintln(stderr, pal.red(microsel.WrapErrorWithName(r.Err, name, code).Error()))
		}
	})
}

// replCommand handles a ':' command and reports whether the REPL should exit.
func replCommand(ip *microsel.Interpreter, cmd string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprint(w, helpText)
		fmt.Fprintln(w, "\nBuilt-in functions:")
		for _, doc := range microsel.BuiltinDocs() {
			fmt.Fprintln(w, "  "+doc)
		}
	case ":reset":
		ip.Reset()
		fmt.Fprintln(w, "state cleared")
	case ":stack":
		dumpState(ip, w)
	default:
		fmt.Fprintf(w, "unknown command %q. Type :help for commands.\n", cmd)
	}
	return false
}

func dumpState(ip *microsel.Interpreter, w io.Writer) {
	syms := ip.Symbols()
	fmt.Fprintf(w, "%d symbol(s), %d stack cell(s)\n", len(syms), ip.StackLen())
	for _, s := range syms {
		if s.IsArray {
			dims := make([]string, len(s.Dims))
			for i, d := range s.Dims {
				dims[i] = fmt.Sprintf("[%d]", d)
			}
			fmt.Fprintf(w, "  %-12s @%-5d arr%s\n", s.Name, s.Addr, strings.Join(dims, ""))
			continue
		}
		v, _ := ip.Load(s.Addr)
		fmt.Fprintf(w, "  %-12s @%-5d = %s\n", s.Name, s.Addr, ip.Format(v))
	}
}

// replStream serves a non-terminal stdin: the program is read character by
// character from the same stream that input() and inputch() consume.
func replStream(cfg *microsel.Config, stdin io.Reader, stdout, stderr io.Writer) int {
	br := bufio.NewReader(stdin)
	ip := newInterpreter(cfg, microsel.WithInput(br), microsel.WithOutput(stdout))
	err := ip.Run("<stdin>", br, func(r microsel.Report) {
		switch r.Kind {
		case microsel.ReportValue:
			fmt.Fprintln(stdout, ip.Format(r.Value))
		case microsel.ReportDefinition:
		default:
			fmt.Fprintln(stderr, r.Err.Error())
		}
	})
	if err != nil {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

func cmdFmt(cfg *microsel.Config, args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	check := fs.Bool("check", false, "list files whose formatting differs; exit 1 if any")
	write := fs.Bool("w", false, "write result to the source file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s fmt [-w] [--check] <file> ...\n", appName)
		return 2
	}

	status := 0
	for _, path := range fs.Args() {
		changed, out, err := formatFile(cfg, path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			status = 1
			continue
		}
		switch {
		case *check:
			if changed {
				fmt.Println(path)
				status = 1
			}
		case *write:
			if changed {
				if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
					status = 1
				}
			}
		default:
			fmt.Print(out)
		}
	}
	return status
}

func formatFile(cfg *microsel.Config, path string) (changed bool, out string, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, "", fmt.Errorf("%s: cannot read %s: %w", appName, path, err)
	}
	ops := microsel.NewOpTable()
	if err := cfg.InstallOperators(ops); err != nil {
		return false, "", err
	}
	out, err = microsel.PrettyWithOps(string(src), ops)
	if err != nil {
		return false, "", fmt.Errorf("%s: %w", path, err)
	}
	return out != string(src), out, nil
}

// -----------------------------------------------------------------------------
// tokens
// -----------------------------------------------------------------------------

func cmdTokens(args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s tokens <file>\n", appName)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, args[0], err)
		return 1
	}
	dumpTokens(os.Stdout, string(src))
	return 0
}

func dumpTokens(w io.Writer, src string) {
	counts := map[microsel.TokenKind]int{}
	for _, t := range microsel.Scan(src) {
		counts[t.Kind]++
		fmt.Fprintf(w, "%4d:%-3d %-8s %s\n", t.Line, t.Col, t.Kind, t)
	}
	kinds := make([]microsel.TokenKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	fmt.Fprintf(w, "# %s\n", strings.Join(parts, " "))
}

// -----------------------------------------------------------------------------
// ast
// -----------------------------------------------------------------------------

func cmdAST(cfg *microsel.Config, args []string) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s ast <file>\n", appName)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, args[0], err)
		return 1
	}
	out, err := dumpAST(cfg, args[0], string(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Println(out)
	return 0
}

func dumpAST(cfg *microsel.Config, name, src string) (string, error) {
	ops := microsel.NewOpTable()
	if err := cfg.InstallOperators(ops); err != nil {
		return "", err
	}
	units, err := microsel.ParseProgram(src, ops)
	if err != nil {
		return "", microsel.WrapErrorWithName(err, name, src)
	}
	b, err := json.MarshalIndent(microsel.ProgramToS(units), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
