package script

import (
	"context"
	"os"

	"go.trai.ch/pyprod/internal/core/domain"
	"go.trai.ch/zerr"
)

// builtinProbe constructs one of the host's built-in staleness probes by
// kind. "env" compares an environment variable's current value; "file"
// compares a file's content bytes, for a resource that isn't the filesystem
// target it affects (e.g. a generated lockfile consulted by several rules);
// "command" compares a shell command's captured stdout, for staleness
// driven by something neither a file nor an env var can express (a remote
// version check, a service's reported revision).
func (h *Host) builtinProbe(kind, arg string) (domain.Probe, error) {
	switch kind {
	case "env":
		return envProbe(arg), nil
	case "file":
		return fileProbe(arg), nil
	case "command":
		return h.commandProbe(arg), nil
	default:
		return nil, zerr.With(zerr.New("unknown check kind"), "kind", kind)
	}
}

func envProbe(name string) domain.Probe {
	return func(_ context.Context, _ string) (any, error) {
		return os.Getenv(name), nil
	}
}

func fileProbe(path string) domain.Probe {
	return func(_ context.Context, _ string) (any, error) {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied configuration
		if err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return nil, err
		}
		return string(data), nil
	}
}

// commandProbe runs command through a shell and reports its trimmed stdout,
// requiring the host's runner to also implement Capturer.
func (h *Host) commandProbe(command string) domain.Probe {
	return func(ctx context.Context, _ string) (any, error) {
		capturer, ok := h.runner.(Capturer)
		if !ok {
			return nil, zerr.New("runner does not support capturing command output")
		}
		return capturer.Capture(ctx, []string{"sh", "-c", command}, h.paramsEnv(), h.workDir)
	}
}
