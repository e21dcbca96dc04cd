package proc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Pid is the identifier for a process.
type Pid int

// String formats a pid as a string to comply with fmt.Stringer interface.
func (pid Pid) String() string {
	return strconv.Itoa(int(pid))
}

// Process identifies a running process.
type Process struct {
	Pid        Pid
	PPid       Pid
	Name       string
	Executable string
}

// Current returns the running process. Name comes from the process table
// where available, otherwise from the executable's base name.
func Current() Process {
	p := Process{
		Pid:  Pid(os.Getpid()),
		PPid: Pid(os.Getppid()),
	}
	if exe, err := os.Executable(); err == nil {
		p.Executable = exe
	}
	if gp, err := process.NewProcess(int32(p.Pid)); err == nil {
		if name, err := gp.Name(); err == nil {
			p.Name = name
		}
	}
	if p.Name == "" && p.Executable != "" {
		p.Name = strings.TrimSuffix(filepath.Base(p.Executable), filepath.Ext(p.Executable))
	}
	return p
}

// CountByName returns how many running processes have a name containing
// name. Names are the full process names, not the kernel's truncated comm.
func CountByName(name string) (int, error) {
	return CountByNameContext(context.Background(), name)
}

// CountByNameContext is CountByName bounded by ctx. Processes that exit while
// the table is read are skipped.
func CountByNameContext(ctx context.Context, name string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}
	count := 0
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(n, name) {
			count++
		}
	}
	return count, nil
}
