//go:build !windows

package procs

import (
	"os/exec"
	"syscall"
)

func configureGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func groupOf(pid int) int {
	if pgid, err := syscall.Getpgid(pid); err == nil && pgid > 0 {
		return pgid
	}
	return pid
}

// Negative PGID targets the whole group (command + any children it spawned).
// ESRCH means another actor already reaped it, which counts as success.
func terminateGroup(pgid int) error {
	if pgid <= 0 {
		return nil
	}
	return swallowGone(syscall.Kill(-pgid, syscall.SIGTERM))
}

func killGroup(pgid int) error {
	if pgid <= 0 {
		return nil
	}
	return swallowGone(syscall.Kill(-pgid, syscall.SIGKILL))
}

func swallowGone(err error) error {
	if err == syscall.ESRCH {
		return nil
	}
	return err
}
