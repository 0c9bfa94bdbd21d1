package domain

import "go.trai.ch/zerr"

// Registry is the insertion-ordered collection of rules and checks a build
// script produces. It is frozen implicitly once resolution starts: rules
// added after Select has been called are still visible (the core places no
// such restriction), but the CLI's script host stops registering once
// loading finishes, mirroring the original's Rules.frozen guard at a layer
// above this one.
type Registry struct {
	rules       []*Rule
	checks      []*Check
	defaultTask string
	hasDefault  bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddRule appends a validated rule, assigning it the next registration
// ordinal. If rule.Default is set and a default was already registered,
// ErrMultipleDefaults is returned. A task rule named "all" is rejected with
// ErrReservedTaskName, mirroring the original's reservation of "all" for
// "build everything".
func (reg *Registry) AddRule(rule *Rule) error {
	if rule.IsTask && defaultTargetName(rule) == "all" {
		return zerr.With(ErrReservedTaskName, "task", "all")
	}

	rule.Ordinal = len(reg.rules)
	if rule.Default {
		if reg.hasDefault {
			return zerr.With(ErrMultipleDefaults, "task", defaultTargetName(rule))
		}
		reg.hasDefault = true
		reg.defaultTask = defaultTargetName(rule)
	}
	reg.rules = append(reg.rules, rule)
	return nil
}

func defaultTargetName(rule *Rule) string {
	if len(rule.Targets) > 0 {
		return rule.Targets[0]
	}
	return ""
}

// AddCheck appends a check, assigning it the next ordinal.
func (reg *Registry) AddCheck(check *Check) {
	check.Ordinal = len(reg.checks)
	reg.checks = append(reg.checks, check)
}

// DefaultTask returns the name of the task flagged default, and whether one
// was registered.
func (reg *Registry) DefaultTask() (string, bool) {
	return reg.defaultTask, reg.hasDefault
}

// Rules returns the registry's rules in registration order. Callers must
// not mutate the returned slice.
func (reg *Registry) Rules() []*Rule {
	return reg.rules
}

// Checks returns the registry's checks in registration order. Callers must
// not mutate the returned slice.
func (reg *Registry) Checks() []*Check {
	return reg.checks
}

// Selection is the result of resolving a target to a rule: the matched
// rule (nil if none), the bound stem (if any), and the %-substituted
// dependency and order-only lists.
type Selection struct {
	Rule    *Rule
	Stem    string
	HasStem bool
	Depends []string
	Uses    []string
}

// CheckMatch pairs a resource name with the check whose pattern bound it.
type CheckMatch struct {
	Check *Check
	Stem  string
}

// bindFunc is the single-'%' stem binder the registry delegates to; it is
// satisfied by internal/engine/pattern.Bind. The registry takes it as a
// parameter rather than importing the engine package, keeping domain free
// of a dependency on the layer above it.
type bindFunc func(pattern, target string) (stem string, ok bool)

// substituteFunc replaces the single '%' in a template with stem; satisfied
// by internal/engine/pattern.Substitute.
type substituteFunc func(template, stem string) string

// Select implements the four-tier match order from the rule registry and
// selection contract: concrete enumerated match, static-pattern match,
// pattern-only match (longest literal prefix, then earliest ordinal), no
// match.
func (reg *Registry) Select(target string, bind bindFunc, substitute substituteFunc) (Selection, bool) {
	// Tier 1: concrete enumerated target match. Rules carrying a static
	// pattern are left to Tier 2, which substitutes their stem.
	for _, r := range reg.rules {
		if r.Pattern != "" {
			continue
		}
		for _, t := range r.Targets {
			if t == target && !containsWildcard(t) {
				return reg.bindSelection(r, "", false, substitute), true
			}
		}
	}

	// Tier 2: static-pattern match — rule enumerates target literally
	// (possibly containing '%') and carries a separate Pattern that
	// binds it to a stem.
	for _, r := range reg.rules {
		if r.Pattern == "" {
			continue
		}
		for _, t := range r.Targets {
			if t != target {
				continue
			}
			stem, ok := bind(r.Pattern, target)
			if !ok {
				continue
			}
			return reg.bindSelection(r, stem, true, substitute), true
		}
	}

	// Tier 3: pattern-only match — a rule whose sole target specifier is
	// itself a '%' pattern. Ties: longest literal prefix, then earliest
	// ordinal (registration order already ascending in reg.rules).
	var best *Rule
	var bestStem string
	bestPrefixLen := -1
	for _, r := range reg.rules {
		if len(r.Targets) != 1 || !containsWildcard(r.Targets[0]) {
			continue
		}
		stem, ok := bind(r.Targets[0], target)
		if !ok {
			continue
		}
		prefixLen := literalPrefixLen(r.Targets[0])
		if prefixLen > bestPrefixLen {
			best = r
			bestStem = stem
			bestPrefixLen = prefixLen
		}
	}
	if best != nil {
		return reg.bindSelection(best, bestStem, true, substitute), true
	}

	return Selection{}, false
}

func (reg *Registry) bindSelection(r *Rule, stem string, hasStem bool, substitute substituteFunc) Selection {
	sel := Selection{Rule: r, Stem: stem, HasStem: hasStem}
	for _, d := range r.Depends {
		if hasStem {
			sel.Depends = append(sel.Depends, substitute(d, stem))
		} else {
			sel.Depends = append(sel.Depends, d)
		}
	}
	for _, u := range r.Uses {
		if hasStem {
			sel.Uses = append(sel.Uses, substitute(u, stem))
		} else {
			sel.Uses = append(sel.Uses, u)
		}
	}
	return sel
}

// SelectCheck returns the first registered check whose pattern binds
// resource, in registration order, following the original's
// Checkers.get_checker.
func (reg *Registry) SelectCheck(resource string, bind bindFunc) (CheckMatch, bool) {
	for _, c := range reg.checks {
		if c.Pattern == resource {
			return CheckMatch{Check: c}, true
		}
		if stem, ok := bind(c.Pattern, resource); ok {
			return CheckMatch{Check: c, Stem: stem}, true
		}
	}
	return CheckMatch{}, false
}

func containsWildcard(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i++
			continue
		}
		return true
	}
	return false
}

// literalPrefixLen returns the length of the literal text preceding the
// pattern's single '%', used to break ties between overlapping pattern
// rules (longest literal prefix wins).
func literalPrefixLen(pattern string) int {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' {
			if i+1 < len(pattern) && pattern[i+1] == '%' {
				i++
				continue
			}
			return i
		}
	}
	return len(pattern)
}
