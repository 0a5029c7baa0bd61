package pattern

import "bytes"

// GlobPattern is a prepared git-wildmatch pattern: trailing unescaped spaces
// already trimmed.
type GlobPattern []byte

// PrepareGlobPattern trims trailing spaces from pattern, unless they are
// escaped with a backslash.
func PrepareGlobPattern(raw string) GlobPattern {
	p := []byte(raw)
	pend := len(p)
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != ' ' {
			break
		}
		if i == 0 {
			pend = 0
			break
		}
		if p[i-1] != '\\' {
			pend = i
			continue
		}
		if i == 1 {
			pend = i + 1
			break
		}
		if p[i-2] == '\\' {
			pend = i
			continue
		}
		pend = i + 1
	}
	return p[:pend]
}

// globMatch implements git's wildmatch algorithm: "*", "**", "?" and
// "[...]" bracket expressions including POSIX classes, with the same
// backtracking rules as https://github.com/git/git/blob/master/wildmatch.c.
func globMatch(pattern GlobPattern, text []byte, isDir bool) bool { //nolint:funlen,gocyclo
	if len(pattern) == 0 || len(text) == 0 {
		return false
	}
	if pattern[0] == '#' {
		return false
	}

	p := 0
	t := 0

	starP := -1
	starT := -1

	starStarP := -1
	starStarT := -1

	pend := len(pattern) - 1
	tend := len(text) - 1
	mustMatchDir := false
	if pattern[len(pattern)-1] == '/' {
		pend -= 1
		mustMatchDir = true
	}

	if pattern[0] == '/' {
		p += 1
	} else if !bytes.ContainsAny(pattern[:len(pattern)-1], "/") {
		starStarP = 0
		starStarT = 0
	}

	matched := true
	for {
		if !matched {
			if starP >= 0 {
				if t > tend {
					return false
				}
				if text[t] == '/' {
					starP = -1
					starT = -1
				} else {
					t = starT
					t += 1
					starT = t
					p = starP
					matched = true
				}
			}
			if starP < 0 && starStarP >= 0 {
				t = starStarT
				p = starStarP
				for t < tend && text[t] != '/' {
					t += 1
				}
				if t >= tend {
					return false
				}
				t += 1
				starStarT = t
				matched = true
			}
			if starP < 0 && starStarP < 0 {
				return false
			}
		}

		if p > pend {
			if t > tend {
				return !mustMatchDir || isDir
			}
			if text[t] == '/' {
				return true
			}
			matched = false
			continue
		}

		pc := pattern[p]
		switch pc {
		case '\\':
			p += 1
			if p > pend || t > tend {
				return false
			}
			matched = text[t] == pattern[p]
			if matched {
				p += 1
				t += 1
			}
		case '?':
			p += 1
			if t > tend {
				return false
			}
			matched = text[t] != '/'
			if matched {
				t += 1
			}
		case '[':
			p += 1
			if p > pend || t > tend {
				return false
			}
			negate := false
			pc := pattern[p]
			if pc == '!' || pc == '^' {
				negate = true
				p += 1
				if p <= pend && pattern[p] == ']' {
					matched = false
					p += 1
					continue
				}
			}
			rangeStart := byte(0)
			tc := text[t]
			matched = false
			escaped := false
			for p <= pend {
				pc := pattern[p]
				p += 1
				if pc == '\\' && !escaped { //nolint:gocritic
					escaped = true
					continue
				} else if pc == ']' && !escaped {
					break
				} else {
					escaped = false
				}
				switch {
				case rangeStart > 0:
					rangeEnd := pc
					if tc >= rangeStart && tc <= rangeEnd {
						matched = true
					}
					rangeStart = 0
				case p <= pend && pattern[p] == '-':
					p += 1
					rangeStart = pc
				case p <= pend && pc == '[' && pattern[p] == ':':
					posixStartP := p
					p += 2
					for p < pend && pattern[p] != ']' {
						p += 1
					}
					if p == pend || pattern[p-1] != ':' {
						p = posixStartP
						if tc == pc {
							matched = true
						}
						continue
					}
					p += 1
					if !matchPosixClass(string(pattern[posixStartP+1:p-2]), tc) {
						if !isKnownPosixClass(string(pattern[posixStartP+1 : p-2])) {
							return false
						}
					} else {
						matched = true
					}
				case pc == tc:
					matched = true
				}
			}
			if negate {
				matched = !matched
			}
			t += 1
		case '*':
			p += 1
			if p > pend {
				return true
			}
			switch pattern[p] {
			case '/':
				p += 1
				for t < tend && text[t] != '/' {
					t += 1
				}
				if t == tend {
					return false
				}
				t += 1
			case '*':
				p += 1
				if p > pend {
					return true
				}
				for p < pend && pattern[p] == '*' {
					p += 1
				}
				if pattern[p] == '/' {
					p += 1
					starStarP = p
					starStarT = t
				} else {
					starP = p
					starT = t
				}
			default:
				starP = p
				starT = t
			}
		default:
			if t > tend {
				matched = false
				continue
			}
			tc := text[t]
			if tc == '/' {
				if pc == '/' {
					t += 1
					p += 1
				} else {
					matched = false
				}
			} else {
				matched = tc == pc
				if matched {
					t += 1
					p += 1
				}
			}
		}
	}
}

func isKnownPosixClass(name string) bool {
	switch name {
	case "alnum", "alpha", "blank", "cntrl", "digit", "graph", "lower", "print", "punct", "space", "upper", "xdigit":
		return true
	default:
		return false
	}
}

func matchPosixClass(name string, c byte) bool {
	switch name {
	case "alnum":
		return isAlnum(c)
	case "alpha":
		return isAlpha(c)
	case "blank":
		return isBlank(c)
	case "cntrl":
		return isCntrl(c)
	case "digit":
		return isDigit(c)
	case "graph":
		return isGraph(c)
	case "lower":
		return isLower(c)
	case "print":
		return isPrint(c)
	case "punct":
		return isPunct(c)
	case "space":
		return isSpace(c)
	case "upper":
		return isUpper(c)
	case "xdigit":
		return isXDigit(c)
	default:
		return false
	}
}

func isAlnum(c byte) bool { return isAlpha(c) || isDigit(c) }
func isAlpha(c byte) bool { return isLower(c) || isUpper(c) }
func isBlank(c byte) bool { return c == ' ' || c == '\t' }
func isCntrl(c byte) bool { return c <= 0x1f || c == 0x7f }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isGraph(c byte) bool { return isPrint(c) && c != ' ' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isPrint(c byte) bool { return c >= 0x20 && c <= 0x7e }
func isPunct(c byte) bool {
	return c >= 0x21 && c <= 0x2f || c >= 0x3a && c <= 0x40 || c >= 0x5b && c <= 0x60 || c >= 0x7b && c <= 0x7e
}
func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isXDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
