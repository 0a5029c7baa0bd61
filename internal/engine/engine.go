// Package engine wires components A-H together into a single Run entry
// point: it validates the external Config, compiles the regex and filters,
// and drives the walker across the given roots.
package engine

import (
	"log/slog"
	"regexp"
	"runtime"

	"github.com/niamster/tgrep/internal/errs"
	"github.com/niamster/tgrep/internal/format"
	"github.com/niamster/tgrep/internal/iowriter"
	"github.com/niamster/tgrep/internal/matcher"
	"github.com/niamster/tgrep/internal/patternset"
	"github.com/niamster/tgrep/internal/scan"
	"github.com/niamster/tgrep/internal/walker"
)

// Config is the single boundary value crossing from untrusted CLI input
// into the core. Run rejects contradictory options and compiles the raw
// strings for regex/globs once, up front.
type Config struct {
	Regex string
	Paths []string

	IgnoreCase        bool
	InvertMatch       bool
	FilesWithMatch    bool
	FilesWithoutMatch bool
	MatchOnly         bool
	NoPath            bool
	NoLno             bool
	Count             bool
	After             int
	Before            int
	Exclude           []string
	Filter            []string
	Type              []string
	IgnoreSymlinks    bool
	NoColor           bool
	Width             int
	Verbosity         int
}

const (
	ExitOK          = 0
	ExitConfigError = 2
)

// builtinTypeAliases is additive sugar over the literal -t/--type flag: a
// small table of common extensions, beyond the plain "filter *.<ext>"
// sugar already covered by --type.
var builtinTypeAliases = map[string]string{ //nolint:gochecknoglobals
	"go":   "go",
	"rust": "rs",
	"py":   "py",
	"js":   "js",
	"ts":   "ts",
	"md":   "md",
	"json": "json",
	"yaml": "yaml",
}

// Run validates cfg, builds the matcher/filters, and drives the walker. The
// returned int is the process exit code; err is non-nil only for
// configuration errors, as opposed to the per-file warnings the walker
// merely logs and continues past.
func Run(cfg Config, stdout *iowriter.StdoutWriter, logger *slog.Logger) (int, error) {
	if cfg.InvertMatch && cfg.FilesWithoutMatch {
		return ExitConfigError, errs.Errorf("-v and -L are mutually exclusive")
	}
	if cfg.InvertMatch && cfg.Count {
		return ExitConfigError, errs.Errorf("-v and -c are mutually exclusive")
	}
	if len(cfg.Paths) == 0 {
		return ExitConfigError, errs.Errorf("no search paths given")
	}

	pattern := cfg.Regex
	if cfg.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ExitConfigError, errs.WrapErrorf(err, "invalid regular expression %q", cfg.Regex)
	}

	invert := cfg.InvertMatch || cfg.FilesWithoutMatch
	m := matcher.New(re, invert)

	strategy := buildStrategy(cfg)

	filters := patternset.NewFilters("")
	for _, g := range cfg.Filter {
		filters.AddGlob(g)
	}
	for _, t := range cfg.Type {
		ext := t
		if alias, ok := builtinTypeAliases[t]; ok {
			ext = alias
		}
		filters.AddGlob("**/*." + ext)
	}

	opts := format.Options{
		Color:     !cfg.NoColor,
		NoPath:    cfg.NoPath,
		NoLno:     cfg.NoLno,
		MatchOnly: cfg.MatchOnly,
		PathOnly:  cfg.FilesWithMatch || cfg.FilesWithoutMatch,
		Width:     cfg.Width,
	}

	w := walker.New(walker.Options{
		Matcher:        m,
		Strategy:       strategy,
		Filters:        filters,
		ExtraExcludes:  cfg.Exclude,
		IgnoreSymlinks: cfg.IgnoreSymlinks,
		FormatOpts:     opts,
		MaxGoroutines:  maxGoroutines(),
		Logger:         logger,
		Stdout:         stdout,
	})

	if err := w.Run(cfg.Paths); err != nil {
		return ExitConfigError, err
	}
	return ExitOK, nil
}

func buildStrategy(cfg Config) scan.Strategy {
	switch {
	case cfg.FilesWithMatch:
		return scan.Strategy{Kind: scan.FirstMatchOnly}
	case cfg.FilesWithoutMatch:
		return scan.Strategy{Kind: scan.AllLinesMatch}
	case cfg.Count:
		return scan.Strategy{Kind: scan.Count}
	case cfg.After > 0 || cfg.Before > 0:
		return scan.Strategy{Kind: scan.WithContext, Before: cfg.Before, After: cfg.After}
	default:
		return scan.Strategy{Kind: scan.Plain}
	}
}

func maxGoroutines() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}
