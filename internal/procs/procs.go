// Package procs tracks background processes spawned by a session and
// guarantees none of them outlives it.
package procs

import (
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"buildloop/internal/logger"
)

const defaultGracePeriod = 5 * time.Second

// Handle identifies one spawned background process.
type Handle struct {
	PID     int
	PGID    int
	Command string

	done    chan struct{} // closed once the process has been reaped
	waitErr error
}

// Exited reports whether the process has already been reaped.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Handle) waitExit(d time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Configure makes cmd start as the leader of its own process group without
// tracking it. Foreground commands use this so a timeout kill reaches any
// children the shell spawned.
func Configure(cmd *exec.Cmd) {
	configureGroup(cmd)
}

// KillGroupOf forcefully kills the process group pid belongs to.
func KillGroupOf(pid int) {
	_ = killGroup(groupOf(pid))
}

// StartGroup starts cmd as the leader of a new process group and returns a
// handle for it. A reaper goroutine collects the exit status so cleanup can
// tell an exited process from a live one.
func StartGroup(cmd *exec.Cmd) (*Handle, error) {
	configureGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	pid := cmd.Process.Pid
	h := &Handle{
		PID:     pid,
		PGID:    groupOf(pid),
		Command: strings.Join(cmd.Args, " "),
		done:    make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

// Registry is the per-session set of background process handles. One session
// owns exactly one registry; no cross-session sharing exists.
type Registry struct {
	mu      sync.Mutex
	handles []*Handle
	grace   time.Duration
}

func NewRegistry() *Registry {
	return &Registry{grace: defaultGracePeriod}
}

// NewRegistryWithGrace is for callers (and tests) that need a shorter
// termination grace period.
func NewRegistryWithGrace(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	return &Registry{grace: grace}
}

func (r *Registry) Track(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()
}

// Count returns how many handles are currently tracked (exited or not).
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Cleanup terminates every tracked process group: graceful signal first,
// bounded wait, then a forceful kill. Handles are drained up front, so
// running Cleanup twice, or on an empty registry, is a no-op. Signal
// failures are swallowed: an already-gone process is a success, and cleanup
// never aborts the remaining handles.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	handles := r.handles
	r.handles = nil
	r.mu.Unlock()

	if len(handles) == 0 {
		return
	}

	var g errgroup.Group
	for _, h := range handles {
		h := h
		g.Go(func() error {
			r.terminate(h)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Registry) terminate(h *Handle) {
	if h.Exited() {
		return
	}
	if logger.Log != nil {
		logger.Log.Printf("[procs] Terminating group %d (%s)", h.PGID, h.Command)
	}

	_ = terminateGroup(h.PGID)
	if h.waitExit(r.grace) {
		return
	}
	_ = killGroup(h.PGID)
	h.waitExit(r.grace)
}
