package script

import "strings"

// Params is the name->string mapping populated from repeated -D KEY=VAL
// flags, handed to build script handlers. Grounded on the original's
// Params class: Get returns an empty string (not an error) for an
// undeclared key, since a build script is expected to probe params
// defensively rather than branch on their presence.
type Params struct {
	env map[string]string
}

// NewParams builds a Params from a set of "KEY=VAL" strings, one per -D
// flag occurrence.
func NewParams(assignments []string) *Params {
	env := make(map[string]string, len(assignments))
	for _, a := range assignments {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return &Params{env: env}
}

// Get returns the value assigned to name, or "" if name was never assigned.
func (p *Params) Get(name string) string {
	if p == nil {
		return ""
	}
	return p.env[name]
}

// GetDefault returns the value assigned to name, or def if name was never
// assigned.
func (p *Params) GetDefault(name, def string) string {
	if p == nil {
		return def
	}
	if v, ok := p.env[name]; ok {
		return v
	}
	return def
}
