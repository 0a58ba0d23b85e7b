// Package tools implements the operations the build actor may invoke
// against a session: file reads/writes/edits, command execution, directory
// changes and todo updates. Every failure the actor can correct comes back
// as a RetryableError; the sandbox decides what a path may touch.
package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"buildloop/internal/sandbox"
	"buildloop/internal/session"
	"buildloop/internal/shell"
)

// Invocation is one tool call issued by the build actor. Immutable once
// issued.
type Invocation struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

// Execute dispatches an invocation against the session and returns the
// structured tool result.
func Execute(ctx context.Context, sess *session.Session, inv *Invocation) (map[string]any, error) {
	if err := ValidateInvocation(inv); err != nil {
		return nil, retryable(err.Error(), err)
	}

	switch inv.Tool {
	case "read_file":
		path, err := getStringArg(inv.Args, "path")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		return readFile(sess, path)
	case "write_file":
		path, err := getStringArg(inv.Args, "path")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		content, err := getStringArg(inv.Args, "content")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		return writeFile(sess, path, content)
	case "edit_file":
		path, err := getStringArg(inv.Args, "path")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		oldString, err := getStringArg(inv.Args, "old_string")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		newString, err := getStringArg(inv.Args, "new_string")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		return editFile(sess, path, oldString, newString)
	case "run_command":
		return runCommand(ctx, sess, inv.Args)
	case "change_directory":
		path, err := getStringArg(inv.Args, "path")
		if err != nil {
			return nil, retryable(err.Error(), err)
		}
		return changeDirectory(sess, path)
	case "set_todos":
		return setTodos(sess, inv.Args)
	default:
		return nil, retryablef("unknown tool: %s", inv.Tool)
	}
}

func runCommand(ctx context.Context, sess *session.Session, args map[string]any) (map[string]any, error) {
	cmd, err := getStringArg(args, "cmd")
	if err != nil {
		return nil, retryable(err.Error(), err)
	}
	timeoutSec, err := getIntArg(args, "timeout", 60)
	if err != nil {
		return nil, retryable(err.Error(), err)
	}
	background, err := getBoolArg(args, "background", false)
	if err != nil {
		return nil, retryable(err.Error(), err)
	}

	if background {
		h, err := shell.Spawn(sess.Cwd(), cmd, sess.Procs)
		if err != nil {
			return nil, retryable(fmt.Sprintf("failed to start background command '%s': %v", cmd, err), err)
		}
		return map[string]any{
			"pid":     h.PID,
			"status":  "running_in_background",
			"message": fmt.Sprintf("Command started in background with PID %d", h.PID),
		}, nil
	}

	res, err := shell.Run(ctx, sess.Cwd(), cmd, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		var te *shell.TimeoutError
		if errors.As(err, &te) {
			return nil, retryable(te.Error(), err)
		}
		return nil, retryable(fmt.Sprintf("failed to execute command '%s': %v", cmd, err), err)
	}
	return map[string]any{
		"exit_code": res.ExitCode,
		"stdout":    res.Stdout,
		"stderr":    res.Stderr,
	}, nil
}

func setTodos(sess *session.Session, args map[string]any) (map[string]any, error) {
	raw, ok := args["todos"].([]any)
	if !ok {
		return nil, retryablef("arg 'todos' must be a list of {title, status} objects")
	}

	todos := make([]session.Todo, 0, len(raw))
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, retryablef("todo %d is not an object", i)
		}
		title, _ := m["title"].(string)
		status, _ := m["status"].(string)
		todo := session.Todo{Title: title, Status: session.TodoStatus(status)}
		if todo.Title == "" {
			return nil, retryablef("todo %d is missing a title", i)
		}
		if !todo.Status.Valid() {
			return nil, retryablef("todo %d has invalid status %q (want active, in_progress or completed)", i, status)
		}
		todos = append(todos, todo)
	}

	sess.SetTodos(todos)
	return map[string]any{"todos": todos}, nil
}

func resolveInSession(sess *session.Session, rel string) (string, error) {
	p, err := sandbox.ResolveAt(sess.Root, sess.Cwd(), rel)
	if err != nil {
		var v *sandbox.Violation
		if errors.As(err, &v) {
			return "", retryable(err.Error(), err)
		}
		return "", err
	}
	return p, nil
}
