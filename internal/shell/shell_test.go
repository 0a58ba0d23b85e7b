//go:build !windows

package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"buildloop/internal/procs"
)

func TestRunCapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()

	res, err := Run(context.Background(), dir, "echo out; echo err >&2; exit 3", 10*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("exit code: got %d, want 3", res.ExitCode)
	}
	if res.Stdout != "out\n" {
		t.Errorf("stdout: got %q", res.Stdout)
	}
	if res.Stderr != "err\n" {
		t.Errorf("stderr: got %q", res.Stderr)
	}
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()

	res, err := Run(context.Background(), dir, "pwd", 10*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Stdout; got == "" {
		t.Fatal("empty pwd output")
	}
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	dir := t.TempDir()

	// The shell writes its own pid before sleeping, so the test can probe
	// for it after the timeout fires.
	start := time.Now()
	_, err := Run(context.Background(), dir, "echo $$ > pid; sleep 30", 500*time.Millisecond)
	elapsed := time.Since(start)

	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("timeout not enforced promptly: took %s", elapsed)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "pid"))
	if err != nil {
		t.Fatalf("pid file not written before timeout: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		t.Fatalf("bad pid file contents %q: %v", raw, err)
	}
	if syscall.Kill(pid, 0) == nil {
		t.Errorf("pid %d still alive after timeout", pid)
	}
}

func TestSpawnRegistersLiveHandle(t *testing.T) {
	dir := t.TempDir()
	reg := procs.NewRegistryWithGrace(2 * time.Second)

	h, err := Spawn(dir, "sleep 30", reg)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if h.PID <= 0 {
		t.Errorf("expected live pid, got %d", h.PID)
	}
	if reg.Count() != 1 {
		t.Errorf("handle not tracked: count=%d", reg.Count())
	}

	reg.Cleanup()
	if syscall.Kill(h.PID, 0) == nil {
		t.Errorf("pid %d still alive after cleanup", h.PID)
	}
}

func TestSpawnEmptyCommandFails(t *testing.T) {
	reg := procs.NewRegistry()
	if _, err := Spawn(t.TempDir(), "   ", reg); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestSplitCommand(t *testing.T) {
	testCases := []struct {
		name       string
		command    string
		expectArgv []string
		expectEnv  []string
	}{
		{
			name:       "Plain command",
			command:    "npm run dev",
			expectArgv: []string{"npm", "run", "dev"},
		},
		{
			name:       "Leading env assignment",
			command:    "PORT=3041 npm run dev",
			expectArgv: []string{"npm", "run", "dev"},
			expectEnv:  []string{"PORT=3041"},
		},
		{
			name:       "Multiple assignments",
			command:    "PORT=3041 NODE_ENV=production node server.js",
			expectArgv: []string{"node", "server.js"},
			expectEnv:  []string{"PORT=3041", "NODE_ENV=production"},
		},
		{
			name:       "Equals inside an argument is not an assignment",
			command:    "grep -r foo=bar .",
			expectArgv: []string{"grep", "-r", "foo=bar", "."},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			argv, env := splitCommand(tc.command)
			if !reflect.DeepEqual(argv, tc.expectArgv) {
				t.Errorf("argv: got %v, want %v", argv, tc.expectArgv)
			}
			if !reflect.DeepEqual(env, tc.expectEnv) {
				t.Errorf("env: got %v, want %v", env, tc.expectEnv)
			}
		})
	}
}
