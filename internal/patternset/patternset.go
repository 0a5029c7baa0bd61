// Package patternset groups compiled patterns per root and layers them into
// whitelist/blacklist sequences the way nested .gitignore files compose down
// a directory tree.
package patternset

import (
	"log/slog"
	"strings"

	"github.com/niamster/tgrep/internal/pattern"
)

// PatternSet is an immutable triple: the root prefix stripped from
// candidates before matching, the directory-only patterns, and the rest.
type PatternSet struct {
	Root    string
	DirOnly []pattern.Pattern
	All     []pattern.Pattern
}

func (ps PatternSet) Match(path string, isDir bool) bool {
	rel := strings.TrimPrefix(path, ps.Root)
	if isDir {
		for _, p := range ps.DirOnly {
			if pattern.Match(p, rel, isDir) {
				return true
			}
		}
	}
	for _, p := range ps.All {
		if pattern.Match(p, rel, isDir) {
			return true
		}
	}
	return false
}

// Patterns is the layered whitelist/blacklist model: a path is excluded iff
// no whitelist layer matches it and some blacklist layer does. Layer order
// is insertion order: parent directories are pushed before children.
type Patterns struct {
	Whitelist []PatternSet
	Blacklist []PatternSet
}

// Extend appends other's layers after self's, so other (expected to be a
// deeper directory's patterns) takes precedence in the disjunction.
func (p *Patterns) Extend(other Patterns) {
	p.Whitelist = append(p.Whitelist, other.Whitelist...)
	p.Blacklist = append(p.Blacklist, other.Blacklist...)
}

// Clone returns an independent copy safe to extend without mutating p.
func (p Patterns) Clone() Patterns {
	return Patterns{
		Whitelist: append([]PatternSet{}, p.Whitelist...),
		Blacklist: append([]PatternSet{}, p.Blacklist...),
	}
}

func (p Patterns) IsExcluded(path string, isDir bool) bool {
	for _, ws := range p.Whitelist {
		if ws.Match(path, isDir) {
			return false
		}
	}
	for _, bs := range p.Blacklist {
		if bs.Match(path, isDir) {
			return true
		}
	}
	return false
}

// CompileIgnoreFile compiles one .gitignore-style file's lines, rooted at
// root, into a Patterns value carrying at most one whitelist and one
// blacklist PatternSet. Malformed lines are logged and skipped; compilation
// never aborts the whole file.
func CompileIgnoreFile(root string, lines []string, logger *slog.Logger) Patterns {
	wl := PatternSet{Root: root}
	bl := PatternSet{Root: root}
	for i, line := range lines {
		p, whitelist, dirOnly, ok := pattern.Compile(line)
		if !ok {
			continue
		}
		if p.Shape == pattern.ShapeGlob && !validGlobBrackets(string(p.Glob)) {
			if logger != nil {
				logger.Warn("skipping malformed ignore pattern", "root", root, "line", i+1, "text", line)
			}
			continue
		}
		target := &bl
		if whitelist {
			target = &wl
		}
		if dirOnly {
			target.DirOnly = append(target.DirOnly, p)
		} else {
			target.All = append(target.All, p)
		}
	}
	out := Patterns{}
	if len(wl.DirOnly) > 0 || len(wl.All) > 0 {
		out.Whitelist = append(out.Whitelist, wl)
	}
	if len(bl.DirOnly) > 0 || len(bl.All) > 0 {
		out.Blacklist = append(out.Blacklist, bl)
	}
	return out
}

// validGlobBrackets rejects patterns with an unterminated "[" character
// class, which the backtracking matcher would otherwise silently fail on
// every call.
func validGlobBrackets(s string) bool {
	depth := 0
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		}
	}
	return depth == 0
}

// BuiltinExclude returns the always-on blacklist layer excluding ".git/" at
// the given root, applied regardless of any .gitignore content.
func BuiltinExclude(root string) Patterns {
	p, _, dirOnly, _ := pattern.Compile(".git/")
	ps := PatternSet{Root: root}
	if dirOnly {
		ps.DirOnly = append(ps.DirOnly, p)
	} else {
		ps.All = append(ps.All, p)
	}
	return Patterns{Blacklist: []PatternSet{ps}}
}

// Filters is a positive file filter: a path is included iff at least one
// pattern matches, or no patterns were ever added (the "match everything"
// default).
type Filters struct {
	set PatternSet
}

func NewFilters(root string) *Filters {
	return &Filters{set: PatternSet{Root: root}}
}

// AddGlob adds one filter glob, e.g. "*.go" or "**/*.go".
func (f *Filters) AddGlob(glob string) {
	p, _, dirOnly, ok := pattern.Compile(glob)
	if !ok {
		return
	}
	if dirOnly {
		f.set.DirOnly = append(f.set.DirOnly, p)
	} else {
		f.set.All = append(f.set.All, p)
	}
}

func (f *Filters) Empty() bool {
	return len(f.set.All) == 0 && len(f.set.DirOnly) == 0
}

func (f *Filters) Included(path string, isDir bool) bool {
	if f.Empty() {
		return true
	}
	return f.set.Match(path, isDir)
}
