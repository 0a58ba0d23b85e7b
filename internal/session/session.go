// Package session defines the unit of work: one task, one sandbox root,
// one process registry, from start to final verdict.
package session

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"buildloop/internal/procs"
)

type TodoStatus string

const (
	TodoActive     TodoStatus = "active"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

type Todo struct {
	Title  string     `json:"title"`
	Status TodoStatus `json:"status"`
}

func (s TodoStatus) Valid() bool {
	switch s {
	case TodoActive, TodoInProgress, TodoCompleted:
		return true
	}
	return false
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Bug is one defect the verify actor reports.
type Bug struct {
	Description    string   `json:"description"`
	ReproduceSteps string   `json:"reproduce_steps"`
	Severity       Severity `json:"severity"`
}

// VerifyResult is the verify actor's verdict for one attempt. Only a "fail"
// outcome triggers a retry.
type VerifyResult struct {
	Result       string `json:"result"` // "success" or "fail"
	BreakingBugs []Bug  `json:"breaking_bugs"`
	Summary      string `json:"summary"`
}

func (v *VerifyResult) Success() bool {
	return v != nil && v.Result == "success"
}

// AttemptResult is the build actor's output for one attempt. Side effects
// (files written, processes spawned) are already committed by the time it
// is produced.
type AttemptResult struct {
	Summary string `json:"summary"`
}

// Session owns everything one task execution touches. Created once per
// invocation; the registry is drained at attempt and session boundaries.
type Session struct {
	ID   string
	Task string
	Root string

	Procs *procs.Registry

	mu    sync.Mutex
	cwd   string
	todos []Todo
}

func New(task, root string) (*Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("could not absolutize sandbox root %q: %w", root, err)
	}
	return &Session{
		ID:    uuid.New().String()[:8],
		Task:  task,
		Root:  abs,
		Procs: procs.NewRegistry(),
		cwd:   abs,
	}, nil
}

// Cwd returns the session's current working directory. It starts at the
// sandbox root and only ever moves inside it.
func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

func (s *Session) SetCwd(dir string) {
	s.mu.Lock()
	s.cwd = dir
	s.mu.Unlock()
}

func (s *Session) Todos() []Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

func (s *Session) SetTodos(todos []Todo) {
	s.mu.Lock()
	s.todos = todos
	s.mu.Unlock()
}
