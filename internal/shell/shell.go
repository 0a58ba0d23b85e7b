// Package shell runs commands for a session, either synchronously with a
// timeout or detached in the background under the process registry.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"buildloop/internal/procs"
)

const (
	shellPath      = "/bin/sh"
	defaultTimeout = 60 * time.Second
)

// Result captures a finished foreground command.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// TimeoutError means the command outlived its budget and was killed. It is a
// retryable condition: the caller may re-issue with a longer timeout.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command timed out after %s: %s", e.Timeout, e.Command)
}

// Run executes command through the shell interpreter in dir and captures
// exit code, stdout and stderr. A non-zero exit code is a normal Result,
// not an error. On timeout the whole process group is killed and a
// *TimeoutError is returned.
func Run(ctx context.Context, dir, command string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(shellPath, "-c", command)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	procs.Configure(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start command: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		procs.KillGroupOf(cmd.Process.Pid)
		<-done
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Command: command, Timeout: timeout}
		}
		return nil, ctx.Err()
	case err := <-done:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("command failed: %w", err)
		}
		return &Result{
			ExitCode: cmd.ProcessState.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil
	}
}

// Spawn starts command directly (no shell wrapper) in dir, detached in its
// own process group with its streams discarded, and registers the handle
// with reg. Leading KEY=VAL tokens become child environment variables, so
// forms like "PORT=3041 npm run dev" work without a shell.
func Spawn(dir, command string, reg *procs.Registry) (*procs.Handle, error) {
	argv, env := splitCommand(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty background command: %q", command)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	h, err := procs.StartGroup(cmd)
	if err != nil {
		return nil, fmt.Errorf("could not spawn background command: %w", err)
	}
	reg.Track(h)
	return h, nil
}

// splitCommand breaks a command line into argv on whitespace, peeling
// leading environment assignments off the front.
func splitCommand(command string) (argv []string, env []string) {
	fields := strings.Fields(command)
	i := 0
	for ; i < len(fields); i++ {
		key, _, found := strings.Cut(fields[i], "=")
		if !found || key == "" || strings.ContainsAny(key, "/.") {
			break
		}
		env = append(env, fields[i])
	}
	return fields[i:], env
}
