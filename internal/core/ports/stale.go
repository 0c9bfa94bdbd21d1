package ports

import (
	"context"
	"time"
)

// FileStat is the staleness oracle's only filesystem seam: the modification
// time of a file target, or exists=false if no such file exists.
//
//go:generate mockgen -source=stale.go -destination=mocks/mock_stale.go -package=mocks
type FileStat interface {
	Stat(path string) (mtime time.Time, exists bool, err error)
}

// CheckStore is the persistent resource -> last-probed-value mapping the
// staleness oracle consults and updates. Implementations must be safe for
// concurrent use; the scheduler may query multiple virtual nodes
// concurrently.
type CheckStore interface {
	// Get returns the entry last recorded for resource, and whether one
	// exists.
	Get(resource string) (CheckEntry, bool)

	// Set records entry for resource, overwriting any previous value.
	Set(resource string, entry CheckEntry)

	// Flush persists the current contents to durable storage.
	Flush(ctx context.Context) error
}

// CheckEntry is one check-value store record: the probe's last-returned
// value and the wall-clock time it was recorded at.
type CheckEntry struct {
	Value     any
	Timestamp time.Time
}

// GitProbe answers the staleness oracle's commit-history mode: whether path
// is tracked, whether the worktree matches the committed blob, and the
// commit's timestamp.
type GitProbe interface {
	Status(ctx context.Context, path string) (tracked bool, clean bool, commitTime time.Time, err error)
}
