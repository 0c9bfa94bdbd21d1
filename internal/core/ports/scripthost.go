package ports

import "go.trai.ch/pyprod/internal/core/domain"

// ScriptHost loads a build script from path into a populated registry. The
// core never parses a script itself; it only consumes the registry a host
// hands it, per the script-host-decoupling design.
type ScriptHost interface {
	Load(path string) (*domain.Registry, error)
}
