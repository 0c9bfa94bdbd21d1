// Package fs implements ports.FileStat against the real filesystem.
package fs

import (
	"os"
	"time"
)

// Stat implements ports.FileStat using os.Stat.
type Stat struct{}

// New returns a Stat backed by the operating system's filesystem.
func New() *Stat {
	return &Stat{}
}

// Stat reports path's modification time and whether it exists. A
// permission error or any other non-not-exist error is returned as-is; a
// missing file reports exists=false with a nil error, matching the
// staleness oracle's "doesn't exist" case rather than failing the build.
func (Stat) Stat(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}
