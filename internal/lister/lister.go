package lister

import "context"

// Process is one raw process-table record as reported by the OS.
// PPID is nil when the platform does not supply a parent pid.
type Process struct {
	PID  int
	PPID *int
	Cmd  string
}

// Filter selects which processes a List call returns.
// Name matches the executable base name (e.g. "daprd"). When Path is set
// it takes precedence and the executable's full path must match exactly.
type Filter struct {
	Name string
	Path string
}

// Lister returns raw process records matching a filter. A failed List
// must return an error rather than a partial result. Implementations
// must be safe for concurrent use.
type Lister interface {
	List(ctx context.Context, f Filter) ([]Process, error)
}
