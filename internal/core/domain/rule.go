package domain

import (
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Handler is the opaque callable a rule invokes once its target is judged
// stale. depends is the bound, %-substituted dependency list; uses edges are
// never passed to the handler.
type Handler func(ctx context.Context, target string, depends []string) error

// Rule is immutable once registered. It pairs one or more target specifiers
// (concrete names or single-% patterns) with ordered depends/uses lists and
// a handler.
type Rule struct {
	// Targets holds every target specifier declared for this rule, after
	// dot-stripping. A specifier containing '%' is a pattern.
	Targets []string

	// Pattern is the static-pattern template paired with an enumerated
	// Targets list, empty when absent.
	Pattern string

	Depends []string
	Uses    []string
	Handler Handler

	// IsTask marks a handler-only rule with no file target; tasks are
	// always stale.
	IsTask bool

	// Default marks the task to run when no target is given on the
	// command line. At most one rule may set this.
	Default bool

	// Ordinal is the registration order, used to break ties between
	// equally-good pattern matches.
	Ordinal int
}

// NewRule validates and constructs a Rule. It mirrors the original's
// Rule.__init__ validation: at most one '%' per target/pattern, '..'
// rejected everywhere, bare '*' rejected in depends/uses.
func NewRule(targets []string, pattern string, depends, uses []string, handler Handler, ordinal int) (*Rule, error) {
	r := &Rule{Handler: handler, Ordinal: ordinal}

	for _, t := range targets {
		t, err := cleanSpecifier(t)
		if err != nil {
			return nil, err
		}
		if _, err := wildcardCount(t); err != nil {
			return nil, err
		}
		r.Targets = append(r.Targets, t)
	}

	if pattern != "" {
		p, err := cleanSpecifier(pattern)
		if err != nil {
			return nil, err
		}
		n, err := wildcardCount(p)
		if err != nil {
			return nil, err
		}
		if n != 1 {
			return nil, zerr.With(ErrPatternRequiresWildcard, "pattern", pattern)
		}
		r.Pattern = p
	}

	for _, d := range depends {
		d, err := cleanDependency(d)
		if err != nil {
			return nil, err
		}
		r.Depends = append(r.Depends, d)
	}
	for _, u := range uses {
		u, err := cleanDependency(u)
		if err != nil {
			return nil, err
		}
		r.Uses = append(r.Uses, u)
	}

	return r, nil
}

// FirstConcreteTarget returns the rule's first target specifier containing
// neither '%' nor '*', or "" if none exists. It grounds Registry's default
// and "select first target" fallback, mirroring the original's
// Rules.select_first_target.
func (r *Rule) FirstConcreteTarget() string {
	for _, t := range r.Targets {
		if t == "" {
			continue
		}
		if strings.Contains(t, "*") {
			continue
		}
		if n, _ := wildcardCount(t); n == 0 {
			return t
		}
	}
	return ""
}

func cleanSpecifier(s string) (string, error) {
	// Virtual resource names ("scheme://...") are kept verbatim: Clean would
	// collapse the "//" and the name would no longer match its check pattern.
	if strings.Contains(s, "://") {
		return s, nil
	}
	s = filepath.Clean(s)
	if s == "." {
		return "", nil
	}
	for _, part := range strings.Split(s, string(filepath.Separator)) {
		if part == ".." {
			return "", zerr.With(ErrDotDotNotAllowed, "path", s)
		}
	}
	return s, nil
}

func cleanDependency(s string) (string, error) {
	if strings.Contains(s, "*") {
		return "", zerr.With(ErrWildcardInDependency, "path", s)
	}
	if _, err := wildcardCount(s); err != nil {
		return "", err
	}
	return cleanSpecifier(s)
}

// wildcardCount counts the single '%' occurrences in s, treating '%%' as an
// escaped literal '%' the way the original's _check_pattern_count does.
func wildcardCount(s string) (int, error) {
	count := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '%' {
			i++
			continue
		}
		count++
	}
	if count > 1 {
		return 0, zerr.With(ErrInvalidPattern, "pattern", s)
	}
	return count, nil
}
