package script

import (
	"context"
	"os"
	"strings"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/pyprod/internal/engine/pattern"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Runner is the subprocess collaborator a loaded rule's handler shells out
// to, satisfied by internal/adapters/shell.Executor.
type Runner interface {
	Run(ctx context.Context, command []string, env map[string]string, workDir string) error
}

// Capturer is the optional half of Runner that reports a subprocess's
// stdout instead of streaming it, satisfied by internal/adapters/shell.
// Executor alongside Runner; a "command" check declares its probe this way.
type Capturer interface {
	Capture(ctx context.Context, command []string, env map[string]string, workDir string) (string, error)
}

// Host implements ports.ScriptHost by reading a pyprod.yaml document and
// binding each declared rule/task to a handler that runs its Run command
// template through runner.
type Host struct {
	runner  Runner
	workDir string
	params  *Params
}

// New returns a Host that dispatches rule handlers through runner, running
// commands in workDir, with params passed to every command as environment
// variables. Command templates substitute only {target}, {depends} and %.
func New(runner Runner, workDir string, params *Params) *Host {
	return &Host{runner: runner, workDir: workDir, params: params}
}

// Load reads path as a pyprod.yaml document and builds a populated
// registry, one rule or task per declaration, one check per declared probe.
func (h *Host) Load(path string) (*domain.Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(domain.ErrConfigNotFound, "path", path)
		}
		return nil, zerr.With(domain.ErrConfigReadFailed, "path", path)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(domain.ErrConfigParseFailed, "path", path)
	}

	reg := domain.NewRegistry()
	ordinal := 0

	for _, rd := range doc.Rules {
		rule, err := domain.NewRule(rd.Targets, rd.Pattern, rd.Depends, rd.Uses, h.commandHandler(rd.Run, stemPattern(rd.Targets, rd.Pattern)), ordinal)
		if err != nil {
			return nil, err
		}
		if err := reg.AddRule(rule); err != nil {
			return nil, err
		}
		ordinal++
	}

	for _, td := range doc.Tasks {
		rule, err := domain.NewRule([]string{td.Name}, "", td.Depends, td.Uses, h.commandHandler(td.Run, ""), ordinal)
		if err != nil {
			return nil, err
		}
		rule.IsTask = true
		rule.Default = td.Default
		if err := reg.AddRule(rule); err != nil {
			return nil, err
		}
		ordinal++
	}

	for _, cd := range doc.Checks {
		probe, err := h.builtinProbe(cd.Kind, cd.Arg)
		if err != nil {
			return nil, err
		}
		reg.AddCheck(&domain.Check{Pattern: cd.Pattern, Probe: probe, Ordinal: ordinal})
		ordinal++
	}

	return reg, nil
}

// commandHandler binds a Run command template to a domain.Handler. pat is
// the rule's own target pattern (empty for concrete targets and tasks);
// each token may reference "%" (substituted with the stem pat binds against
// the resolved target), "{target}", or "{depends}".
func (h *Host) commandHandler(template []string, pat string) domain.Handler {
	if len(template) == 0 {
		return nil
	}
	return func(ctx context.Context, target string, depends []string) error {
		stem, hasStem := "", false
		if pat != "" {
			stem, hasStem = pattern.Bind(pat, target)
		}

		command := make([]string, len(template))
		for i, tok := range template {
			command[i] = h.expand(tok, target, depends, stem, hasStem)
		}
		return h.runner.Run(ctx, command, h.paramsEnv(), h.workDir)
	}
}

func (h *Host) expand(token, target string, depends []string, stem string, hasStem bool) string {
	token = strings.ReplaceAll(token, "{target}", target)
	token = strings.ReplaceAll(token, "{depends}", strings.Join(depends, " "))
	if hasStem && pattern.Count(token) == 1 {
		token = pattern.Substitute(token, stem)
	}
	return token
}

// stemPattern returns the single-% pattern to bind a resolved target's stem
// against: the static-pattern template if set, otherwise the first
// wildcard target specifier, or "" for a rule with no wildcard at all.
func stemPattern(targets []string, explicitPattern string) string {
	if explicitPattern != "" {
		return explicitPattern
	}
	for _, t := range targets {
		if pattern.Count(t) == 1 {
			return t
		}
	}
	return ""
}

func (h *Host) paramsEnv() map[string]string {
	if h.params == nil {
		return nil
	}
	return h.params.env
}
