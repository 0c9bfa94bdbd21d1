package domain

import "context"

// Probe is a user-supplied staleness check for a non-file resource. It
// returns an opaque, comparable value; a change in the returned value
// between runs marks the resource "just changed".
type Probe func(ctx context.Context, resource string) (any, error)

// Check pairs a resource-name pattern (typically containing "://" or a '%'
// wildcard) with the probe invoked for matching resources. Matching against
// a resource name is performed by internal/engine/pattern, which is the
// single implementation of '%'-stem binding; domain only holds the
// declaration.
type Check struct {
	Pattern string
	Probe   Probe
	Ordinal int
}
