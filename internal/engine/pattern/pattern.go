// Package pattern implements the single-'%'-wildcard matcher rules and
// checks are resolved through: bind a target against a pattern to recover
// its stem, and substitute a stem back into a dependency template. It is
// pure and has no knowledge of rules, targets, or the filesystem.
package pattern

import (
	"regexp"
	"strings"
)

// percentRe matches either an escaped '%%' or a bare '%', the same
// tokenization the original's replace_pattern/rule_to_re use.
var percentRe = regexp.MustCompile(`%%|%`)

// Count returns the number of unescaped '%' occurrences in s. '%%' counts
// as zero (it is an escaped literal '%').
func Count(s string) int {
	n := 0
	for _, m := range percentRe.FindAllString(s, -1) {
		if m == "%" {
			n++
		}
	}
	return n
}

// Bind matches target against pattern, which must contain at most one
// unescaped '%'. If pattern has no wildcard, it binds only when target is
// literally equal (after unescaping '%%') and returns an empty stem. If it
// has one, the stem is whatever substring target has between the literal
// prefix and suffix surrounding the '%'; the '%' may span path separators.
func Bind(pattern, target string) (stem string, ok bool) {
	re, wildcard, err := toRegexp(pattern)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(target)
	if m == nil {
		return "", false
	}
	if !wildcard {
		return "", true
	}
	idx := re.SubexpIndex("stem")
	if idx < 0 || idx >= len(m) {
		return "", false
	}
	return m[idx], true
}

// Substitute replaces the single unescaped '%' in template with stem, and
// unescapes any '%%' elsewhere to a literal '%'. A template with no '%' is
// returned with only its escapes resolved.
func Substitute(template, stem string) string {
	n := 0
	return percentRe.ReplaceAllStringFunc(template, func(m string) string {
		if m == "%%" {
			return "%"
		}
		n++
		return stem
	})
}

// toRegexp compiles pattern into an anchored regexp matching literal text
// around a single capturing group named "stem" where pattern's '%' sits.
// Escaped '%%' is unescaped to a literal '%' in the compiled expression.
func toRegexp(pattern string) (*regexp.Regexp, bool, error) {
	var b strings.Builder
	b.WriteString("^")
	wildcard := false

	matches := percentRe.FindAllStringIndex(pattern, -1)
	last := 0
	for _, loc := range matches {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		tok := pattern[loc[0]:loc[1]]
		if tok == "%%" {
			b.WriteString(regexp.QuoteMeta("%"))
		} else {
			b.WriteString("(?P<stem>.*)")
			wildcard = true
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, false, err
	}
	return re, wildcard, nil
}
