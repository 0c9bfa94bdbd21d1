// Package script implements the built-in YAML build-script host
// (pyprod.yaml), plus the handler-visible helpers (Params, Glob,
// PipInstaller) the original script API exposes to build scripts: run,
// capture, glob, pip, and params. The shell-quoting helpers (quote/squote)
// live alongside the subprocess launcher in internal/adapters/shell.
//
// Grounded on the teacher's config.Load/Bobfile YAML schema+loader pair
// (internal/adapters/config/{schema,loader}.go).
package script

// Document is the top-level pyprod.yaml shape.
type Document struct {
	Rules  []RuleDTO  `yaml:"rules"`
	Tasks  []TaskDTO  `yaml:"tasks"`
	Checks []CheckDTO `yaml:"checks"`
}

// RuleDTO declares one rule: one or more target specifiers (concrete names
// or %-patterns), the static-pattern template when Targets is an enumerated
// list, its depends/uses, and the shell command template run to produce it.
type RuleDTO struct {
	Targets []string `yaml:"targets"`
	Pattern string   `yaml:"pattern"`
	Depends []string `yaml:"depends"`
	Uses    []string `yaml:"uses"`
	Run     []string `yaml:"run"`
}

// TaskDTO declares a named phony action.
type TaskDTO struct {
	Name    string   `yaml:"name"`
	Depends []string `yaml:"depends"`
	Uses    []string `yaml:"uses"`
	Run     []string `yaml:"run"`
	Default bool     `yaml:"default"`
}

// CheckDTO declares a staleness probe for a virtual resource pattern. Kind
// selects one of the built-in probes the host knows how to construct; a
// script host embedding richer scripting would replace this with real
// callables.
type CheckDTO struct {
	Pattern string `yaml:"pattern"`
	Kind    string `yaml:"kind"`
	Arg     string `yaml:"arg"`
}
