package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/pyprod/internal/app"
)

func writeScript(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "pyprod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestApp_Run_BuildsTargetAndSkipsSecondRun(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeScript(t, dir, `
rules:
  - targets: ["out.txt"]
    run: ["sh", "-c", "echo hi > out.txt"]
`)

	a, err := app.New(app.Options{
		ScriptPath:     scriptPath,
		WorkDir:        dir,
		Parallelism:    2,
		CheckStorePath: filepath.Join(dir, "checks.json"),
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), []string{"out.txt"}))
	_, err = os.Stat(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)

	a2, err := app.New(app.Options{
		ScriptPath:     scriptPath,
		WorkDir:        dir,
		Parallelism:    2,
		CheckStorePath: filepath.Join(dir, "checks.json"),
	})
	require.NoError(t, err)
	require.NoError(t, a2.Run(context.Background(), []string{"out.txt"}))
}

func TestApp_Run_MultipleTargetsAllBuilt(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeScript(t, dir, `
rules:
  - targets: ["a.txt"]
    run: ["sh", "-c", "echo a > a.txt"]
  - targets: ["b.txt"]
    run: ["sh", "-c", "echo b > b.txt"]
`)

	a, err := app.New(app.Options{
		ScriptPath:     scriptPath,
		WorkDir:        dir,
		Parallelism:    2,
		CheckStorePath: filepath.Join(dir, "checks.json"),
	})
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background(), []string{"a.txt", "b.txt"}))
	_, err = os.Stat(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
}

func TestApp_ListTargets(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeScript(t, dir, `
rules:
  - targets: ["%.o"]
    depends: ["%.c"]
    run: ["true"]
tasks:
  - name: "build"
    depends: ["hello.o"]
    default: true
`)

	a, err := app.New(app.Options{
		ScriptPath:     scriptPath,
		WorkDir:        dir,
		CheckStorePath: filepath.Join(dir, "checks.json"),
	})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"build"}, a.ListTargets())
}

func TestApp_New_RejectsReservedTaskName(t *testing.T) {
	dir := t.TempDir()
	scriptPath := writeScript(t, dir, `
tasks:
  - name: "all"
    default: true
`)

	_, err := app.New(app.Options{
		ScriptPath:     scriptPath,
		WorkDir:        dir,
		CheckStorePath: filepath.Join(dir, "checks.json"),
	})
	require.Error(t, err)
}
