package lister

import (
	"context"
	"fmt"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// SystemLister scans the local process table via gopsutil. The zero value
// is ready to use.
type SystemLister struct{}

func (SystemLister) List(ctx context.Context, f Filter) ([]Process, error) {
	procs, err := gopsproc.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	out := make([]Process, 0)
	for _, p := range procs {
		if !matches(ctx, p, f) {
			continue
		}
		cmd, err := p.CmdlineWithContext(ctx)
		if err != nil || cmd == "" {
			// Processes we cannot read (permissions, already exited)
			// are simply not part of this scan.
			continue
		}
		rec := Process{PID: int(p.Pid), Cmd: cmd}
		if ppid, err := p.PpidWithContext(ctx); err == nil && ppid > 0 {
			v := int(ppid)
			rec.PPID = &v
		}
		out = append(out, rec)
	}
	return out, nil
}

func matches(ctx context.Context, p *gopsproc.Process, f Filter) bool {
	if f.Path != "" {
		exe, err := p.ExeWithContext(ctx)
		if err != nil {
			return false
		}
		return exe == f.Path
	}
	if f.Name == "" {
		return true
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return false
	}
	// Windows reports the executable with its extension.
	return name == f.Name || strings.TrimSuffix(name, ".exe") == f.Name
}
