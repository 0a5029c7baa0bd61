// Package matcher wraps a compiled regular expression into the two-mode
// contract the scan strategies consume: a fuzzy whole-buffer pre-filter and
// a bounded per-line exact match.
package matcher

import "regexp"

// Range is a half-open byte range [Start, End) into the matched text.
type Range struct {
	Start int
	End   int
}

// Matcher owns a compiled regexp and the invert-match flag. When invert is
// set, both modes XOR their would-match bit: a non-match becomes a match
// spanning the whole input, and a match becomes a non-match.
type Matcher struct {
	re     *regexp.Regexp
	invert bool
}

func New(re *regexp.Regexp, invert bool) *Matcher {
	return &Matcher{re: re, invert: invert}
}

// Fuzzy reports whether buf contains any match at all. Ranges are advisory:
// a single range covering the leftmost match is sufficient, since this is
// only used as a cheap pre-filter over a whole mapped file.
func (m *Matcher) Fuzzy(buf []byte) ([]Range, bool) {
	loc := m.re.FindIndex(buf)
	matched := loc != nil
	if m.invert {
		if matched {
			return nil, false
		}
		return []Range{{0, len(buf)}}, true
	}
	if !matched {
		return nil, false
	}
	return []Range{{loc[0], loc[1]}}, true
}

// Exact returns up to max non-overlapping matches within line, in order. A
// negative max means unbounded.
func (m *Matcher) Exact(line string, max int) ([]Range, bool) {
	locs := m.re.FindAllStringIndex(line, max)
	matched := len(locs) > 0
	if m.invert {
		if matched {
			return nil, false
		}
		return []Range{{0, len(line)}}, true
	}
	if !matched {
		return nil, false
	}
	ranges := make([]Range, len(locs))
	for i, l := range locs {
		ranges[i] = Range{Start: l[0], End: l[1]}
	}
	return ranges, true
}
