// Package scan implements the per-file scan strategies: plain,
// first-match-only, all-lines-must-match, count, and with-context. Each
// strategy is expressed as a tagged variant carrying its own parameters
// rather than a deep interface hierarchy.
package scan

import (
	"github.com/niamster/tgrep/internal/format"
	"github.com/niamster/tgrep/internal/lineread"
	"github.com/niamster/tgrep/internal/matcher"
)

type Kind int

const (
	Plain Kind = iota
	FirstMatchOnly
	AllLinesMatch
	Count
	WithContext
)

type Strategy struct {
	Kind   Kind
	Before int
	After  int
}

// Result carries everything downstream rendering needs: a pre-built record
// list for strategies that emit per-line output, and the raw totals for
// strategies (FirstMatchOnly, AllLinesMatch) whose output is a single
// path-only record decided by the caller.
type Result struct {
	Records []format.DisplayContext
	Total   int
	Matched int
}

// Run executes strategy s against reader r using matcher m. If r provides a
// whole-file view, the fuzzy pre-filter runs first and a non-match
// short-circuits the whole file with a zero Result.
func Run(s Strategy, r lineread.Reader, m *matcher.Matcher) Result {
	if buf, ok := r.Map(); ok {
		if _, matched := m.Fuzzy(buf); !matched {
			return Result{}
		}
	}
	switch s.Kind {
	case FirstMatchOnly:
		return runFirstMatchOnly(r, m)
	case AllLinesMatch:
		return runAllLinesMatch(r, m)
	case Count:
		return runCount(r, m)
	case WithContext:
		return runWithContext(s.Before, s.After, r, m)
	default:
		return runPlain(r, m)
	}
}

func runPlain(r lineread.Reader, m *matcher.Matcher) Result {
	var res Result
	for line := range r.Lines() {
		res.Total++
		ranges, matched := m.Exact(line.Text, -1)
		if !matched {
			continue
		}
		res.Matched++
		res.Records = append(res.Records, format.DisplayContext{
			LineNumber: line.Number,
			LineText:   line.Text,
			Ranges:     ranges,
			LnoSep:     ":",
		})
	}
	return res
}

func runFirstMatchOnly(r lineread.Reader, m *matcher.Matcher) Result {
	var res Result
	for line := range r.Lines() {
		res.Total++
		_, matched := m.Exact(line.Text, -1)
		if matched {
			res.Matched = 1
			break
		}
	}
	return res
}

func runAllLinesMatch(r lineread.Reader, m *matcher.Matcher) Result {
	var res Result
	for line := range r.Lines() {
		res.Total++
		_, matched := m.Exact(line.Text, -1)
		if matched {
			res.Matched++
		}
	}
	return res
}

func runCount(r lineread.Reader, m *matcher.Matcher) Result {
	var res Result
	for line := range r.Lines() {
		res.Total++
		_, matched := m.Exact(line.Text, -1)
		if matched {
			res.Matched++
		}
	}
	if res.Matched > 0 {
		res.Records = []format.DisplayContext{{LineNumber: res.Matched, LineText: "", LnoSep: ":"}}
	}
	return res
}

// runWithContext keeps a ring buffer of up to `before` unemitted lines and a
// countdown of remaining `after` lines following the last match. Records are
// built in increasing line-number order, with a separator inserted whenever
// a gap larger than one line opens between two consecutive emitted records.
func runWithContext(before, after int, r lineread.Reader, m *matcher.Matcher) Result { //nolint:funlen
	var res Result
	var ringBuf []lineread.Line
	afterRemaining := 0
	lastEmitted := -1

	emit := func(ln int, text string, ranges []matcher.Range, sep string) {
		if lastEmitted != -1 && ln-lastEmitted > 1 {
			res.Records = append(res.Records, format.DisplayContext{IsMatchSeparator: true})
		}
		res.Records = append(res.Records, format.DisplayContext{
			LineNumber: ln,
			LineText:   text,
			Ranges:     ranges,
			LnoSep:     sep,
		})
		lastEmitted = ln
	}

	for line := range r.Lines() {
		res.Total++
		ranges, matched := m.Exact(line.Text, -1)
		if matched {
			res.Matched++
			for _, bl := range ringBuf {
				if bl.Number > lastEmitted {
					emit(bl.Number, bl.Text, nil, "-")
				}
			}
			ringBuf = ringBuf[:0]
			emit(line.Number, line.Text, ranges, ":")
			afterRemaining = after
			continue
		}
		if afterRemaining > 0 {
			if line.Number > lastEmitted {
				emit(line.Number, line.Text, nil, "+")
			}
			afterRemaining--
			continue
		}
		if before > 0 {
			ringBuf = append(ringBuf, line)
			if len(ringBuf) > before {
				ringBuf = ringBuf[1:]
			}
		}
	}
	return res
}
