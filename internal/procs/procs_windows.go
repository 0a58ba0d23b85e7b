//go:build windows

package procs

import (
	"os"
	"os/exec"
)

func configureGroup(cmd *exec.Cmd) {}

func groupOf(pid int) int { return pid }

// Windows has no process groups in the POSIX sense; fall back to killing the
// tracked process itself. Lookup failures mean the process is already gone.
func terminateGroup(pgid int) error { return killGroup(pgid) }

func killGroup(pgid int) error {
	if pgid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pgid)
	if err != nil {
		return nil
	}
	_ = proc.Kill()
	return nil
}
