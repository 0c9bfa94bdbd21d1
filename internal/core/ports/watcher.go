package ports

import (
	"context"
	"iter"
)

// Watcher watches a directory tree for changes, feeding the -w rebuild loop.
type Watcher interface {
	// Start begins watching root recursively until ctx is done.
	Start(ctx context.Context, root string) error
	// Stop releases the watcher's resources.
	Stop() error
	// Events yields file system change events as they arrive.
	Events() iter.Seq[WatchEvent]
}

// Operation identifies the kind of change a WatchEvent reports.
type Operation int

// Watch event operations.
const (
	OpWrite Operation = iota
	OpCreate
	OpRemove
	OpRename
)

// WatchEvent is one observed filesystem change.
type WatchEvent struct {
	Path      string
	Operation Operation
}
