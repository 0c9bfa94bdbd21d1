package script

import "context"

// PipInstaller wraps the pip(*packages) collaborator the original exposes
// for virtual-environment provisioning, shelling out through the same
// Runner a rule's command template uses.
type PipInstaller struct {
	runner  Runner
	workDir string
}

// NewPipInstaller returns a PipInstaller invoking pip through runner inside
// workDir.
func NewPipInstaller(runner Runner, workDir string) *PipInstaller {
	return &PipInstaller{runner: runner, workDir: workDir}
}

// Install runs "pip install <packages...>", letting a build script declare
// its own Python dependencies as part of a rule's handler.
func (p *PipInstaller) Install(ctx context.Context, packages ...string) error {
	command := append([]string{"pip", "install"}, packages...)
	return p.runner.Run(ctx, command, nil, p.workDir)
}
