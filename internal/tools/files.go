package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"buildloop/internal/session"
)

func readFile(sess *session.Session, path string) (map[string]any, error) {
	p, err := resolveInSession(sess, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, retryable(fmt.Sprintf("failed to read file '%s': %v", path, err), err)
	}
	if !utf8.Valid(data) {
		return nil, retryablef("file '%s' is not valid UTF-8 text", path)
	}
	return map[string]any{"content": string(data)}, nil
}

func writeFile(sess *session.Session, path, content string) (map[string]any, error) {
	p, err := resolveInSession(sess, path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, retryable(fmt.Sprintf("failed to create parent directory for '%s': %v", path, err), err)
	}
	b := []byte(content)
	if err := os.WriteFile(p, b, 0644); err != nil {
		return nil, retryable(fmt.Sprintf("failed to write file '%s': %v", path, err), err)
	}
	return map[string]any{"path": p, "bytes": len(b), "action": "wrote"}, nil
}

// editFile replaces exactly the first occurrence. An absent old_string
// leaves the file untouched.
func editFile(sess *session.Session, path, oldString, newString string) (map[string]any, error) {
	p, err := resolveInSession(sess, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, retryable(fmt.Sprintf("failed to read file '%s': %v", path, err), err)
	}
	content := string(data)
	if !strings.Contains(content, oldString) {
		return nil, retryablef("string not found in file '%s': %s", path, truncateForError(oldString))
	}
	updated := strings.Replace(content, oldString, newString, 1)
	if err := os.WriteFile(p, []byte(updated), 0644); err != nil {
		return nil, retryable(fmt.Sprintf("failed to edit file '%s': %v", path, err), err)
	}
	return map[string]any{"path": p, "replacements": 1}, nil
}

func changeDirectory(sess *session.Session, path string) (map[string]any, error) {
	p, err := resolveInSession(sess, path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, retryable(fmt.Sprintf("directory does not exist: %s", path), err)
	}
	if !info.IsDir() {
		return nil, retryablef("path is not a directory: %s", path)
	}

	old := sess.Cwd()
	sess.SetCwd(p)
	return map[string]any{
		"old_cwd": old,
		"new_cwd": p,
		"action":  "changed_directory",
	}, nil
}

const maxErrorSnippet = 50

func truncateForError(s string) string {
	if len(s) <= maxErrorSnippet {
		return s
	}
	return s[:maxErrorSnippet] + "..."
}
