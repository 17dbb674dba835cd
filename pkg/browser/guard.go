package browser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo is the part of a running process the guard looks at.
type ProcessInfo struct {
	PID  int32
	Name string
}

// ListProcesses enumerates running processes. Tests replace it.
var ListProcesses = func(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// the process exited or is not ours to inspect
			continue
		}
		infos = append(infos, ProcessInfo{PID: p.Pid, Name: name})
	}
	return infos, nil
}

// EnsureNoRunningInstance fails with ErrAlreadyRunning when another process
// whose name contains name is alive.
func EnsureNoRunningInstance(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}

	procs, err := ListProcesses(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	self := int32(os.Getpid())
	needle := strings.ToLower(name)
	for _, p := range procs {
		if p.PID != self && strings.Contains(strings.ToLower(p.Name), needle) {
			return fmt.Errorf("%w: %s (pid %d)", ErrAlreadyRunning, p.Name, p.PID)
		}
	}
	return nil
}
