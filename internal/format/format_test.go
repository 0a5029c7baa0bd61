package format_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/niamster/tgrep/internal/format"
	"github.com/niamster/tgrep/internal/matcher"
	"github.com/niamster/tgrep/internal/testsupport"
)

func noColorOpts() format.Options {
	return format.Options{Width: 80}
}

func TestPathOnlyUncolored(t *testing.T) {
	a := testsupport.NewAssert(t)
	a.Equal("/a/b.go", format.PathOnly("/a/b.go", noColorOpts()))
}

func TestPathOnlyColored(t *testing.T) {
	a := testsupport.NewAssert(t)
	s := format.PathOnly("/a/b.go", format.Options{Color: true})
	a.True(strings.Contains(s, "/a/b.go"))
	a.True(strings.Contains(s, "\x1b["))
}

func TestRecordPlainLineHasPathLineNumberAndText(t *testing.T) {
	a := testsupport.NewAssert(t)
	dc := format.DisplayContext{LineNumber: 5, LineText: "hello world", LnoSep: ":"}
	out := format.Record("/a/b.go", dc, noColorOpts())
	a.Equal(1, len(out))
	a.Equal("/a/b.go:5: hello world", out[0])
}

func TestRecordNoPathOmitsPathPrefix(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.NoPath = true
	dc := format.DisplayContext{LineNumber: 5, LineText: "hello", LnoSep: ":"}
	out := format.Record("/a/b.go", dc, opts)
	a.Equal("5: hello", out[0])
}

func TestRecordNoLnoOmitsLineNumber(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.NoLno = true
	dc := format.DisplayContext{LineNumber: 5, LineText: "hello", LnoSep: ":"}
	out := format.Record("/a/b.go", dc, opts)
	a.Equal("/a/b.go: hello", out[0])
}

func TestRecordPathOnlyModeIgnoresLineText(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.PathOnly = true
	dc := format.DisplayContext{LineNumber: 5, LineText: "hello", LnoSep: ":"}
	out := format.Record("/a/b.go", dc, opts)
	a.Equal(1, len(out))
	a.Equal("/a/b.go", out[0])
}

func TestRecordMatchOnlyEmitsOneLinePerRange(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.MatchOnly = true
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   "foo bar foo",
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: 0, End: 3}, {Start: 8, End: 11}},
	}
	out := format.Record("/a", dc, opts)
	a.Equal(2, len(out))
	a.True(strings.HasSuffix(out[0], "foo"))
	a.True(strings.HasSuffix(out[1], "foo"))
}

func TestRecordMultiMatchHighlightsEachRange(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := format.Options{Color: true, Width: 80}
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   "foo bar foo",
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: 0, End: 3}, {Start: 8, End: 11}},
	}
	out := format.Record("/a", dc, opts)
	a.Equal(1, len(out))
	a.True(strings.Contains(out[0], " bar "))
	a.True(strings.Contains(out[0], "\x1b[31m"))
}

func TestRecordSingleMatchNoTruncationWhenLineFitsWidth(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   "short match line",
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: 6, End: 11}},
	}
	out := format.Record("/a", dc, opts)
	a.Equal("/a:1: short match line", out[0])
}

func TestRecordSingleMatchTruncatesOnNarrowWidth(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.Width = 16 // "/a:1: " (6) + 10 left for the line body
	line := strings.Repeat("x", 100) + "MATCH" + strings.Repeat("y", 100)
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   line,
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: 100, End: 105}},
	}
	out := format.Record("/a", dc, opts)
	a.True(strings.Contains(out[0], "MATCH"))
	a.True(strings.Contains(out[0], "[...]"))
}

// truncation markers must never split a multi-byte rune.
func TestRecordSingleMatchTruncationRespectsUTF8Boundary(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.Width = 36 // "/a:1: " (6) + 30 left for the line body
	line := strings.Repeat("é", 50) + "MATCH" + strings.Repeat("é", 50)
	matchStart := len(strings.Repeat("é", 50))
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   line,
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: matchStart, End: matchStart + 5}},
	}
	out := format.Record("/a", dc, opts)
	a.True(strings.Contains(out[0], "MATCH"))
	a.True(utf8.ValidString(out[0]))
}

// When both sides truncate with margins wider than the markers, the rendered
// line (prefix included) must fill exactly opts.Width, never exceed it: the
// ellipsis markers are carved out of the margin budget rather than appended
// on top of it.
func TestRecordSingleMatchTruncationNeverExceedsWidth(t *testing.T) {
	a := testsupport.NewAssert(t)
	opts := noColorOpts()
	opts.Width = 26 // "/a:1: " (6) + 20 left for the line body
	line := strings.Repeat("x", 100)
	dc := format.DisplayContext{
		LineNumber: 1,
		LineText:   line[:50] + "MATCH" + line[55:],
		LnoSep:     ":",
		Ranges:     []matcher.Range{{Start: 50, End: 55}},
	}
	out := format.Record("/a", dc, opts)
	a.Equal(1, len(out))
	a.True(strings.Contains(out[0], "[...]"))
	a.Equal(opts.Width, len(out[0]))
}

func TestFileSeparatorAndMatchSeparator(t *testing.T) {
	a := testsupport.NewAssert(t)
	a.Equal("--", format.FileSeparator(noColorOpts()))
	a.Equal("..", format.MatchSeparator(noColorOpts()))
}
