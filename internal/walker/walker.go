// Package walker implements the recursive, ignore-aware, parallel directory
// walk: it composes .gitignore layers down the tree, detects symlink
// cycles, dispatches per-file scans to a bounded goroutine pool, and flushes buffered
// per-file output in a deterministic order.
package walker

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/niamster/tgrep/internal/errs"
	"github.com/niamster/tgrep/internal/format"
	"github.com/niamster/tgrep/internal/iowriter"
	"github.com/niamster/tgrep/internal/lineread"
	"github.com/niamster/tgrep/internal/matcher"
	"github.com/niamster/tgrep/internal/patternset"
	"github.com/niamster/tgrep/internal/scan"
)

// inlineThreshold is the batch size below which a directory's files are
// scanned on the calling goroutine instead of being submitted to the pool;
// the dispatch overhead isn't worth it for a handful of files.
const inlineThreshold = 3

type fileTask struct {
	Path string
	Size int64
}

// walkerState is cloned per recursion level: the inherited layered
// patterns, extended with any local .gitignore, and the ancestor absolute
// paths used for symlink-loop detection.
type walkerState struct {
	Patterns  patternset.Patterns
	Ancestors []string
}

type Options struct {
	Matcher        *matcher.Matcher
	Strategy       scan.Strategy
	Filters        *patternset.Filters
	ExtraExcludes  []string
	IgnoreSymlinks bool
	FormatOpts     format.Options
	MaxGoroutines  int
	Logger         *slog.Logger
	Stdout         *iowriter.StdoutWriter
}

// Walker runs one invocation across one or more root arguments. The
// "has-emitted-any-file-separator" flag is shared across every root so the
// first non-empty file in the entire run is never preceded by a separator.
type Walker struct {
	opts            Options
	printSeparators bool
	hasEmittedAny   atomic.Bool
}

func New(opts Options) *Walker {
	if opts.MaxGoroutines <= 0 {
		opts.MaxGoroutines = 1
	}
	return &Walker{
		opts:            opts,
		printSeparators: opts.Strategy.Kind == scan.WithContext,
	}
}

// Run walks each root sequentially, in the order given (cross-root ordering
// is not otherwise guaranteed, per spec).
func (w *Walker) Run(roots []string) error {
	for _, root := range roots {
		if err := w.walkRoot(root); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) walkRoot(root string) error {
	if root == "-" {
		bw := iowriter.NewBufferedWriter()
		w.scanStdin(bw)
		w.flushOne(bw)
		return nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return errs.WrapErrorf(err, "cannot resolve root %s", root)
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return errs.WrapErrorf(err, "cannot stat root %s", root)
	}

	patterns := loadAncestorPatterns(abs, w.opts.Logger)
	patterns.Extend(patternset.BuiltinExclude(abs))
	patterns.Extend(w.compileExtraExcludes(abs))
	state := walkerState{Patterns: patterns, Ancestors: []string{abs}}

	if info.IsDir() {
		return w.walkDir(abs, state)
	}
	bw := iowriter.NewBufferedWriter()
	w.scanFile(fileTask{Path: abs, Size: info.Size()}, bw)
	w.flushOne(bw)
	return nil
}

func (w *Walker) compileExtraExcludes(root string) patternset.Patterns {
	if len(w.opts.ExtraExcludes) == 0 {
		return patternset.Patterns{}
	}
	lines := make([]string, len(w.opts.ExtraExcludes))
	copy(lines, w.opts.ExtraExcludes)
	return patternset.CompileIgnoreFile(root, lines, w.opts.Logger)
}

func loadGitignore(dir string, logger *slog.Logger) patternset.Patterns {
	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return patternset.Patterns{}
	}
	return patternset.CompileIgnoreFile(dir, strings.Split(string(content), "\n"), logger)
}

// loadAncestorPatterns walks up from root's parent directory until the
// first ancestor containing a .git directory (or the filesystem root),
// compiling each .gitignore found and applying them ancestor-first so
// deeper layers appear later in the resulting Patterns.
func loadAncestorPatterns(root string, logger *slog.Logger) patternset.Patterns {
	var dirs []string
	dir := filepath.Dir(root)
	for {
		dirs = append(dirs, dir)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	patterns := patternset.Patterns{}
	for i := len(dirs) - 1; i >= 0; i-- {
		patterns.Extend(loadGitignore(dirs[i], logger))
	}
	return patterns
}

type dirEntry struct {
	name      string
	isDir     bool
	isSymlink bool
	size      int64
}

func (w *Walker) walkDir(dir string, state walkerState) error { //nolint:funlen
	local := loadGitignore(dir, w.opts.Logger)
	newPatterns := state.Patterns.Clone()
	newPatterns.Extend(local)
	state.Patterns = newPatterns

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.opts.Logger.Warn("cannot read directory", "path", dir, "err", err)
		return nil
	}

	var dive []dirEntry
	var files []fileTask
	for _, e := range entries {
		if e.Name() == ".gitignore" {
			continue
		}
		full := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			w.opts.Logger.Warn("cannot stat entry", "path", full, "err", err)
			continue
		}
		isSymlink := info.Mode()&os.ModeSymlink != 0
		isDir := e.IsDir()
		if !isSymlink && !isDir && !info.Mode().IsRegular() {
			w.opts.Logger.Debug("skipping entry of unknown type", "path", full)
			continue
		}
		if state.Patterns.IsExcluded(full, isDir) {
			continue
		}
		if isDir || isSymlink {
			dive = append(dive, dirEntry{name: e.Name(), isDir: isDir, isSymlink: isSymlink, size: info.Size()})
		} else {
			if !w.opts.Filters.Included(full, false) {
				continue
			}
			files = append(files, fileTask{Path: full, Size: info.Size()})
		}
	}
	sort.Slice(dive, func(i, j int) bool { return dive[i].name < dive[j].name })
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, d := range dive {
		full := filepath.Join(dir, d.name)
		if d.isSymlink {
			w.handleSymlink(full, state)
			continue
		}
		child := state
		child.Ancestors = append(append([]string{}, state.Ancestors...), full)
		if err := w.walkDir(full, child); err != nil {
			w.opts.Logger.Warn("error walking directory", "path", full, "err", err)
		}
	}
	w.grepMany(files)
	return nil
}

func (w *Walker) handleSymlink(path string, state walkerState) {
	if w.opts.IgnoreSymlinks {
		w.opts.Logger.Debug("ignoring symlink", "path", path)
		return
	}
	target, err := os.Readlink(path)
	if err != nil {
		w.opts.Logger.Warn("cannot read symlink", "path", path, "err", err)
		return
	}
	joined := target
	if !filepath.IsAbs(target) {
		joined = filepath.Join(filepath.Dir(path), target)
	}
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		w.opts.Logger.Warn("cannot resolve symlink", "path", path, "err", err)
		return
	}
	for _, a := range state.Ancestors {
		if a == resolved {
			w.opts.Logger.Warn("symlink loop detected, not recursing", "path", path, "target", resolved)
			return
		}
		if strings.HasPrefix(a, resolved+string(filepath.Separator)) {
			w.opts.Logger.Info("symlink would escape into an ancestor, not recursing", "path", path, "target", resolved)
			return
		}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		w.opts.Logger.Warn("cannot stat symlink target", "path", path, "err", err)
		return
	}
	newState := state
	newState.Ancestors = append(append([]string{}, state.Ancestors...), resolved)
	if info.IsDir() {
		if err := w.walkDir(resolved, newState); err != nil {
			w.opts.Logger.Warn("error walking symlinked directory", "path", resolved, "err", err)
		}
		return
	}
	if !w.opts.Filters.Included(resolved, false) {
		return
	}
	bw := iowriter.NewBufferedWriter()
	w.scanFile(fileTask{Path: resolved, Size: info.Size()}, bw)
	w.flushOne(bw)
}

// grepMany allocates one buffered writer per file, keyed by sorted path,
// scans small batches (or zero-length files) inline, submits the rest to
// a pool created for this batch and capped at MaxGoroutines, waits, then
// flushes in sorted order. The pool is not shared across directories.
func (w *Walker) grepMany(files []fileTask) {
	if len(files) == 0 {
		return
	}
	writers := make(map[string]*iowriter.BufferedWriter, len(files))
	order := make([]string, 0, len(files))
	for _, f := range files {
		writers[f.Path] = iowriter.NewBufferedWriter()
		order = append(order, f.Path)
	}
	sort.Strings(order)

	p := pool.New().WithMaxGoroutines(w.opts.MaxGoroutines)
	for _, f := range files {
		f := f
		bw := writers[f.Path]
		if f.Size == 0 || len(files) < inlineThreshold {
			w.scanFile(f, bw)
		} else {
			p.Go(func() { w.scanFile(f, bw) })
		}
	}
	p.Wait()

	for _, path := range order {
		w.flushOne(writers[path])
	}
}

func (w *Walker) flushOne(bw *iowriter.BufferedWriter) {
	if !bw.HasSome() {
		return
	}
	if w.printSeparators {
		if w.hasEmittedAny.Swap(true) {
			w.opts.Stdout.Write(format.FileSeparator(w.opts.FormatOpts))
		}
	} else {
		w.hasEmittedAny.Store(true)
	}
	bw.Flush(w.opts.Stdout)
}

func (w *Walker) scanFile(f fileTask, bw *iowriter.BufferedWriter) {
	reader, err := lineread.Open(f.Path, f.Size, w.opts.Logger)
	if err != nil {
		w.opts.Logger.Warn("cannot open file", "path", f.Path, "err", err)
		return
	}
	defer reader.Close()
	if buf, ok := reader.Map(); ok {
		if lineread.IsBinary(buf) {
			w.opts.Logger.Debug("binary file, skipping", "path", f.Path)
			return
		}
	}
	result := scan.Run(w.opts.Strategy, reader, w.opts.Matcher)
	w.emit(f.Path, result, bw)
}

func (w *Walker) scanStdin(bw *iowriter.BufferedWriter) {
	reader := lineread.NewStdin(w.opts.Logger)
	defer reader.Close()
	result := scan.Run(w.opts.Strategy, reader, w.opts.Matcher)
	w.emit(reader.Path(), result, bw)
}

func (w *Walker) emit(path string, result scan.Result, bw *iowriter.BufferedWriter) {
	switch w.opts.Strategy.Kind {
	case scan.FirstMatchOnly:
		if result.Matched > 0 {
			bw.Write(format.PathOnly(path, w.opts.FormatOpts))
		}
	case scan.AllLinesMatch:
		if result.Total > 0 && result.Matched == result.Total {
			bw.Write(format.PathOnly(path, w.opts.FormatOpts))
		}
	default:
		for _, rec := range result.Records {
			if rec.IsMatchSeparator {
				bw.Write(format.MatchSeparator(w.opts.FormatOpts))
				continue
			}
			for _, line := range format.Record(path, rec, w.opts.FormatOpts) {
				bw.Write(line)
			}
		}
	}
}
