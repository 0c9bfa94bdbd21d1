package domain

import "go.trai.ch/zerr"

var (
	// ErrNoRuleForTarget is returned when no rule matches a target and no such file exists.
	ErrNoRuleForTarget = zerr.New("no rule to make target")

	// ErrCycleDetected is returned when a dependency cycle is found while resolving the graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrInvalidPattern is returned when a rule's pattern contains more than one '%'.
	ErrInvalidPattern = zerr.New("pattern contains multiple '%'")

	// ErrPatternRequiresWildcard is returned when a static-pattern rule's pattern has no '%'.
	ErrPatternRequiresWildcard = zerr.New("pattern must contain exactly one '%'")

	// ErrMultipleDefaults is returned when more than one task is registered as default.
	ErrMultipleDefaults = zerr.New("multiple default tasks registered")

	// ErrHandlerFailed is returned when a rule's handler returns an error.
	ErrHandlerFailed = zerr.New("handler failed")

	// ErrTargetNotProduced is returned when a handler succeeds but its file target was not created.
	ErrTargetNotProduced = zerr.New("target not produced")

	// ErrCheckProbeFailed is returned when a check's probe function returns an error.
	ErrCheckProbeFailed = zerr.New("check probe failed")

	// ErrInterrupted is returned when a run is aborted by an external signal.
	ErrInterrupted = zerr.New("interrupted")

	// ErrDotDotNotAllowed is returned when a target, dependency, or pattern contains '..'.
	ErrDotDotNotAllowed = zerr.New("'..' is not allowed")

	// ErrWildcardInDependency is returned when a depends/uses entry contains a bare '*'.
	ErrWildcardInDependency = zerr.New("'*' is not allowed in depends/uses")

	// ErrReservedTaskName is returned when a task is registered under the reserved name "all".
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrNoTargetsSpecified is returned when a run is requested with no targets and no default task registered.
	ErrNoTargetsSpecified = zerr.New("no targets specified and no default task registered")

	// ErrCheckStoreReadFailed is returned when the check-value store file cannot be read.
	ErrCheckStoreReadFailed = zerr.New("failed to read check-value store")

	// ErrCheckStoreWriteFailed is returned when the check-value store cannot be persisted.
	ErrCheckStoreWriteFailed = zerr.New("failed to write check-value store")

	// ErrRuleAlreadyHasHandler is returned when register_rule is called twice for the same rule identity.
	ErrRuleAlreadyHasHandler = zerr.New("rule already has a handler")

	// ErrAmbiguousStaticPattern is returned when a static-pattern rule's pattern does not bind one of its targets.
	ErrAmbiguousStaticPattern = zerr.New("pattern does not match one of the rule's enumerated targets")

	// ErrConfigReadFailed is returned when the pyprod script file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read pyprod file")

	// ErrConfigParseFailed is returned when the pyprod script file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse pyprod file")

	// ErrConfigNotFound is returned when no pyprod file can be located.
	ErrConfigNotFound = zerr.New("could not find pyprod file")
)
