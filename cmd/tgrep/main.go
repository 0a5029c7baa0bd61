// Command tgrep is a recursive, gitignore-aware, parallel text search tool.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/niamster/tgrep/internal/engine"
	"github.com/niamster/tgrep/internal/iowriter"
	"github.com/niamster/tgrep/internal/logs"
)

const appName = "tgrep"

const version = "0.1.0"

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprint(os.Stderr, strings.Trim(fmt.Sprintf(`
Usage: %s [options] PATTERN [PATH...]

Search PATH recursively for lines matching the regular expression
PATTERN, honoring .gitignore rules. Without PATH, standard input is
searched when it is not a terminal, and the current directory otherwise.

Options:
`, appName), "\n ")+"\n")
		fs.PrintDefaults()
	}
}

func isTerm(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printErr(msg string, args ...any) {
	s := "\nError: "
	if isTerm(os.Stderr) {
		s = fmt.Sprintf("\x1b[31m%s\x1b[0m", s)
	}
	fmt.Fprintf(os.Stderr, s+msg+"\n", args...)
}

func colorEnabled(noColor bool) bool {
	if noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerm(os.Stdout)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return math.MaxInt
	}
	return w
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseArgs(argv []string) (engine.Config, bool, error) { //nolint:funlen
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	var cfg engine.Config
	var exclude, filter, typ stringList
	var contextN int
	var showVersion bool
	var verboseCount int
	var quietCount int

	fs.BoolVar(&cfg.IgnoreCase, "i", false, "case-insensitive match")
	fs.BoolVar(&cfg.InvertMatch, "v", false, "invert match")
	fs.BoolVar(&cfg.FilesWithMatch, "l", false, "print only file names with a match")
	fs.BoolVar(&cfg.FilesWithoutMatch, "L", false, "print only file names without a match")
	fs.BoolVar(&cfg.MatchOnly, "o", false, "print only the matched text, one match per line")
	fs.BoolVar(&cfg.NoPath, "no-path", false, "suppress the path prefix")
	fs.BoolVar(&cfg.NoLno, "no-lno", false, "suppress the line-number prefix")
	fs.BoolVar(&cfg.Count, "c", false, "print a per-file match count instead of matching lines")
	fs.IntVar(&cfg.After, "A", 0, "print N lines of trailing context")
	fs.IntVar(&cfg.Before, "B", 0, "print N lines of leading context")
	fs.IntVar(&contextN, "C", 0, "print N lines of leading and trailing context")
	fs.Var(&exclude, "exclude", "additional gitignore-style exclude pattern (repeatable)")
	fs.Var(&filter, "filter", "positive glob filter (repeatable)")
	fs.Var(&typ, "type", "sugar for -filter '**/*.<ext>' (repeatable)")
	fs.Var(&typ, "t", "shorthand for --type (repeatable)")
	fs.BoolVar(&cfg.IgnoreSymlinks, "no-symlinks", false, "do not follow symlinks")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&cfg.NoColor, "no-colour", false, "disable colored output")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolFunc("verbose", "increase verbosity (repeatable)", func(string) error { verboseCount++; return nil })
	fs.BoolFunc("q", "decrease verbosity (repeatable)", func(string) error { quietCount++; return nil })
	fs.Usage = usage(fs)

	if err := fs.Parse(argv); err != nil {
		return cfg, false, err
	}
	if showVersion {
		fmt.Fprintln(os.Stdout, appName, version)
		return cfg, true, nil
	}

	if contextN > 0 {
		cfg.After = contextN
		cfg.Before = contextN
	}
	cfg.Exclude = exclude
	cfg.Filter = filter
	cfg.Type = typ
	cfg.Verbosity = verboseCount - quietCount

	rest := fs.Args()
	if len(rest) == 0 {
		return cfg, false, fmt.Errorf("missing PATTERN argument")
	}
	cfg.Regex = rest[0]
	cfg.Paths = rest[1:]
	if len(cfg.Paths) == 0 {
		if !isTerm(os.Stdin) {
			cfg.Paths = []string{"-"}
		} else {
			cfg.Paths = []string{"."}
		}
	}
	cfg.Width = terminalWidth()
	return cfg, false, nil
}

func main() {
	cfg, handled, err := parseArgs(os.Args[1:])
	if handled {
		os.Exit(0)
	}
	if err != nil {
		printErr(err.Error())
		os.Exit(engine.ExitConfigError)
	}
	cfg.NoColor = !colorEnabled(cfg.NoColor)

	logger := logs.New(os.Stderr, cfg.Verbosity)
	stdout := iowriter.NewStdoutWriter(os.Stdout)

	exitCode, err := engine.Run(cfg, stdout, logger)
	if err != nil {
		printErr(err.Error())
	}
	os.Exit(exitCode)
}
