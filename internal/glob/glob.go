// Package glob compiles shell style wildcard patterns into segment
// matchers.
//
// Supported syntax: literals, * (any run of characters within a segment),
// ? (one character), ** (zero or more whole segments), {a,b} alternation
// (nested groups allowed, expanded before compiling), [abc], [a-z] and
// [!a] / [^a] character classes, and \ to escape the next character.
package glob

import (
	"regexp"
	"strings"
)

// Pattern is one brace-free alternative compiled into segment matchers.
type Pattern struct {
	source string
	abs    bool
	segs   []segment
}

type segment struct {
	any     bool
	literal string
	re      *regexp.Regexp
}

func (s segment) match(name string) bool {
	if s.re != nil {
		return s.re.MatchString(name)
	}
	return s.literal == name
}

// Source is the pattern as written before brace expansion.
func (p *Pattern) Source() string {
	return p.source
}

// IsAbs reports whether the pattern is anchored at the root.
func (p *Pattern) IsAbs() bool {
	return p.abs
}

// MaxDepth returns the number of segments a match can have, or -1 when the
// pattern contains ** and so is unbounded.
func (p *Pattern) MaxDepth() int {
	for _, s := range p.segs {
		if s.any {
			return -1
		}
	}
	return len(p.segs)
}

// Match reports whether the slash separated path matches. Empty segments in
// name are ignored, so "a/b" and "/a/b/" are the same path.
func (p *Pattern) Match(name string) bool {
	if len(p.segs) == 0 {
		return false
	}
	return matchSegments(p.segs, splitPath(name))
}

// matchSegments backtracks over every split point ** could take.
func matchSegments(segs []segment, parts []string) bool {
	for len(segs) > 0 {
		if segs[0].any {
			rest := segs[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 || !segs[0].match(parts[0]) {
			return false
		}
		segs, parts = segs[1:], parts[1:]
	}
	return len(parts) == 0
}

// Set is the compiled form of one or more source patterns.
type Set struct {
	pats       []*Pattern
	ignoreCase bool
}

// Compile expands braces in pattern and compiles every alternative. With
// ignoreCase, both the pattern and the names it is matched against are
// lower-cased.
func Compile(pattern string, ignoreCase bool) *Set {
	set := &Set{ignoreCase: ignoreCase}
	if pattern == "" {
		return set
	}
	src := pattern
	if ignoreCase {
		pattern = strings.ToLower(pattern)
	}
	for _, alt := range Expand(pattern) {
		set.pats = append(set.pats, compile(src, alt))
	}
	return set
}

// Union returns a set matching whatever any of sets matches, trying them in
// order. The sets must agree on case sensitivity.
func Union(sets ...*Set) *Set {
	u := &Set{}
	for _, s := range sets {
		u.ignoreCase = u.ignoreCase || s.ignoreCase
		u.pats = append(u.pats, s.pats...)
	}
	return u
}

// Patterns returns the compiled alternatives in order.
func (s *Set) Patterns() []*Pattern {
	return s.pats
}

func (s *Set) Len() int {
	return len(s.pats)
}

// Match tests rel, a path relative to the walk root, and abs, the same
// entry's absolute path, against each alternative in order. Relative
// alternatives see rel and absolute ones see abs. It returns the source
// pattern of the first alternative that matched.
func (s *Set) Match(rel, abs string) (string, bool) {
	if s.ignoreCase {
		rel, abs = strings.ToLower(rel), strings.ToLower(abs)
	}
	for _, p := range s.pats {
		name := rel
		if p.abs {
			name = abs
		}
		if p.Match(name) {
			return p.source, true
		}
	}
	return "", false
}

// MaxDepth is the largest MaxDepth of the alternatives, -1 if any is
// unbounded.
func (s *Set) MaxDepth() int {
	depth := 0
	for _, p := range s.pats {
		d := p.MaxDepth()
		if d < 0 {
			return -1
		}
		if p.abs {
			// absolute patterns can match anywhere below the walk root
			return -1
		}
		if d > depth {
			depth = d
		}
	}
	return depth
}

// Match reports whether name matches pattern. It is a convenience for one
// off matching; callers matching repeatedly should keep a compiled Set.
func Match(pattern, name string) bool {
	_, ok := Compile(pattern, false).Match(name, name)
	return ok
}

// HasMeta reports whether s contains any glob syntax.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, `*?[{\`)
}

// Expand returns the brace expansion of pattern as the cross product of
// every group. Groups without a top-level comma and unclosed braces are
// kept literally.
func Expand(pattern string) []string {
	open, depth := -1, 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			alts := splitBraceContent(pattern[open+1 : i])
			if len(alts) < 2 {
				open = -1
				continue
			}
			prefix, suffix := pattern[:open], pattern[i+1:]
			var out []string
			for _, alt := range alts {
				for _, rest := range Expand(alt + suffix) {
					out = append(out, prefix+rest)
				}
			}
			return out
		}
	}
	return []string{pattern}
}

// splitBraceContent splits brace content by top-level commas, keeping
// nested groups and escapes intact.
func splitBraceContent(content string) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\\':
			current.WriteByte(content[i])
			if i+1 < len(content) {
				i++
				current.WriteByte(content[i])
			}
		case '{':
			depth++
			current.WriteByte(content[i])
		case '}':
			depth--
			current.WriteByte(content[i])
		case ',':
			if depth == 0 {
				parts = append(parts, current.String())
				current.Reset()
			} else {
				current.WriteByte(content[i])
			}
		default:
			current.WriteByte(content[i])
		}
	}
	if current.Len() > 0 || len(parts) > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func compile(source, pattern string) *Pattern {
	p := &Pattern{source: source, abs: strings.HasPrefix(pattern, "/")}
	for _, part := range strings.Split(pattern, "/") {
		switch {
		case part == "" || part == ".":
			continue
		case part == "**":
			if n := len(p.segs); n > 0 && p.segs[n-1].any {
				continue
			}
			p.segs = append(p.segs, segment{any: true})
		case !strings.ContainsAny(part, `*?[\`):
			p.segs = append(p.segs, segment{literal: part})
		default:
			re, err := regexp.Compile(segmentRegex(part))
			if err != nil {
				// e.g. a reversed range like [z-a]
				p.segs = append(p.segs, segment{literal: part})
				continue
			}
			p.segs = append(p.segs, segment{re: re})
		}
	}
	return p
}

// segmentRegex translates a single path segment into an anchored regular
// expression.
func segmentRegex(seg string) string {
	var b strings.Builder
	b.WriteString("(?s)^")
	for i := 0; i < len(seg); i++ {
		switch c := seg[i]; c {
		case '*':
			for i+1 < len(seg) && seg[i+1] == '*' {
				i++
			}
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(seg) {
				i++
				b.WriteString(regexp.QuoteMeta(seg[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			class, n := charClass(seg[i:])
			if n == 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(class)
			i += n - 1
		default:
			b.WriteString(regexp.QuoteMeta(seg[i : i+1]))
		}
	}
	b.WriteString("$")
	return b.String()
}

// charClass translates the bracket expression at the start of s. It
// returns the regexp class and the number of bytes consumed, or 0 when the
// bracket is never closed.
func charClass(s string) (string, int) {
	var b strings.Builder
	b.WriteByte('[')
	i := 1
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		b.WriteByte('^')
		i++
	}
	first := true
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ']' && !first:
			b.WriteByte(']')
			return b.String(), i + 1
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteString(regexp.QuoteMeta(s[i : i+1]))
		case c == '-' && !first && i+1 < len(s) && s[i+1] != ']':
			b.WriteByte('-')
		case c == '[' || c == ']' || c == '^' || c == '\\' || c == '-':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		first = false
	}
	return "", 0
}

func splitPath(name string) []string {
	parts := strings.Split(name, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// MatchString reports whether s matches pattern as one name, so that * and
// ? also match "/". It suits strings that are not paths, such as log
// attributes.
func MatchString(pattern, s string) bool {
	for _, alt := range Expand(pattern) {
		re, err := regexp.Compile(segmentRegex(alt))
		if err != nil {
			if alt == s {
				return true
			}
			continue
		}
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
