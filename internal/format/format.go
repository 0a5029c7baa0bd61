// Package format renders DisplayContext records into output lines: path
// prefix, line-number piece, margin/truncation math for single matches, and
// full-line highlighting for multi-match lines. A single formatter consults
// a color boolean; no data type is parameterized on color.
package format

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/niamster/tgrep/internal/matcher"
)

const (
	colorReset      = "\x1b[0m"
	colorBlue       = "\x1b[34m"
	colorGreen      = "\x1b[32m"
	colorCyan       = "\x1b[36m"
	colorRed        = "\x1b[31m"
	colorPurple     = "\x1b[35m"
	colorMutedRed   = "\x1b[2;31m"
	colorMutedGreen = "\x1b[2;32m"
)

const ellipsis = "[...] "

// DisplayContext is one renderable record: a match line, a before/after
// context line, a count record, or a match separator.
type DisplayContext struct {
	LineNumber       int
	LineText         string
	Ranges           []matcher.Range
	LnoSep           string // ":" match, "-" before-context, "+" after-context
	IsMatchSeparator bool
}

// Options controls rendering independent of any single record.
type Options struct {
	Color     bool
	NoPath    bool
	NoLno     bool
	MatchOnly bool
	PathOnly  bool
	Width     int
}

func colorize(on bool, color, s string) string {
	if !on || s == "" {
		return s
	}
	return color + s + colorReset
}

// PathOnly renders just the path, for -l/-L modes.
func PathOnly(path string, opts Options) string {
	return colorize(opts.Color, colorBlue, path)
}

// FileSeparator renders the "--" line emitted between per-file outputs.
func FileSeparator(opts Options) string {
	return colorize(opts.Color, colorMutedRed, "--")
}

// MatchSeparator renders the ".." line emitted within a file between two
// non-adjacent context groups.
func MatchSeparator(opts Options) string {
	return colorize(opts.Color, colorMutedGreen, "..")
}

// Record renders one DisplayContext to one or more output lines (more than
// one only in MatchOnly mode with multiple ranges on the line).
func Record(path string, dc DisplayContext, opts Options) []string {
	if opts.PathOnly {
		return []string{PathOnly(path, opts)}
	}
	prefix := prefixFor(path, dc, opts)
	if opts.MatchOnly {
		if len(dc.Ranges) == 0 {
			return []string{prefix}
		}
		out := make([]string, 0, len(dc.Ranges))
		for _, r := range dc.Ranges {
			matched := sliceSafe(dc.LineText, r.Start, r.End)
			out = append(out, prefix+colorize(opts.Color, colorRed, matched))
		}
		return out
	}
	// The margin math budgets against the width remaining after the
	// path/line-number prefix is printed, not the raw terminal width, so the
	// prefix's plain (uncolored) length has to be measured separately.
	plainLen := len(prefixFor(path, dc, Options{NoPath: opts.NoPath, NoLno: opts.NoLno}))
	body := renderLine(dc, opts.Width-plainLen, opts)
	return []string{prefix + body}
}

func prefixFor(path string, dc DisplayContext, opts Options) string {
	lnoSep := dc.LnoSep
	if lnoSep == "" {
		lnoSep = ":"
	}
	sepColored := colorize(opts.Color, colorCyan, lnoSep)
	var sb strings.Builder
	wrote := false
	if !opts.NoPath {
		sb.WriteString(colorize(opts.Color, colorBlue, path))
		wrote = true
	}
	if !opts.NoLno {
		if wrote {
			sb.WriteString(sepColored)
		}
		sb.WriteString(colorize(opts.Color, colorGreen, strconv.Itoa(dc.LineNumber)))
		wrote = true
	}
	if !wrote {
		return ""
	}
	sb.WriteString(sepColored)
	sb.WriteString(" ")
	return sb.String()
}

// renderLine dispatches to the no-match, single-match, or multi-match
// renderer. width is the budget left for the line after the prefix has
// already been printed (opts.Width minus the prefix's plain length); only
// renderSingleMatch's margin math consults it.
func renderLine(dc DisplayContext, width int, opts Options) string {
	if len(dc.Ranges) == 0 {
		return dc.LineText
	}
	if len(dc.Ranges) == 1 {
		return renderSingleMatch(dc.LineText, dc.Ranges[0], width, opts)
	}
	return renderMultiMatch(dc.LineText, dc.Ranges, opts)
}

func renderMultiMatch(line string, ranges []matcher.Range, opts Options) string {
	var sb strings.Builder
	prev := 0
	for _, r := range ranges {
		if r.Start > prev {
			sb.WriteString(line[prev:r.Start])
		}
		sb.WriteString(colorize(opts.Color, colorRed, sliceSafe(line, r.Start, r.End)))
		prev = r.End
	}
	if prev < len(line) {
		sb.WriteString(line[prev:])
	}
	return sb.String()
}

// renderSingleMatch computes the margin/truncation layout for a line with
// exactly one match: given width (the budget remaining for the line after
// its prefix), compute left/right margins around the match and truncate
// with "[...] " / " [...]" markers landing on UTF-8 boundaries. The
// ellipsis markers are carved out of the margin budget, not appended on
// top of it, so the rendered line stays within width whenever each
// truncated side's margin is at least as wide as its marker. A narrower
// margin shows the marker with no context on that side, and the line then
// runs past width.
func renderSingleMatch(line string, r matcher.Range, width int, opts Options) string {
	m := r.End - r.Start
	matchText := sliceSafe(line, r.Start, r.End)
	w := width
	if w < m {
		w = m
	}
	if w == m {
		// No budget left for any context: show the bare match, no margins,
		// no ellipsis.
		return colorize(opts.Color, colorRed, matchText)
	}

	l := len(line)
	var left, right int
	if r.Start < w/2 {
		left = min(r.Start, (w-m)/2)
		right = w - m - left
	} else {
		right = min(l-r.End, (w-m)/2)
		left = w - m - right
	}

	leftStart := 0
	truncLeft := r.Start > left
	if truncLeft {
		leftStart = r.Start - left + len(ellipsis)
		if leftStart > r.Start {
			// left margin narrower than the ellipsis marker itself; fall
			// back to showing no left context rather than slicing past
			// r.Start.
			leftStart = r.Start
		}
		leftStart = alignRuneStartForward(line, leftStart, r.Start)
	}

	rightEnd := l
	truncRight := l-r.End > right
	if truncRight {
		rightEnd = r.End + right - len(ellipsis)
		if rightEnd < r.End {
			rightEnd = r.End
		}
		rightEnd = alignRuneStartBackward(line, rightEnd, r.End)
	}

	var sb strings.Builder
	if truncLeft {
		sb.WriteString(colorize(opts.Color, colorPurple, ellipsis))
	}
	sb.WriteString(line[leftStart:r.Start])
	sb.WriteString(colorize(opts.Color, colorRed, matchText))
	sb.WriteString(line[r.End:rightEnd])
	if truncRight {
		sb.WriteString(colorize(opts.Color, colorPurple, " "+ellipsis[:len(ellipsis)-1]))
	}
	return sb.String()
}

// alignRuneStartForward slides idx forward until it lands on a UTF-8 rune
// boundary, never past limit.
func alignRuneStartForward(s string, idx, limit int) int {
	for idx < limit && !utf8.RuneStart(s[idx]) {
		idx++
	}
	return idx
}

// alignRuneStartBackward slides idx backward until it lands on a UTF-8 rune
// boundary, never before limit.
func alignRuneStartBackward(s string, idx, limit int) int {
	for idx > limit && idx < len(s) && !utf8.RuneStart(s[idx]) {
		idx--
	}
	return idx
}

func sliceSafe(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start > end {
		return ""
	}
	return s[start:end]
}
