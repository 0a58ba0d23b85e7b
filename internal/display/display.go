// Package display formats invocations, verdicts and metrics for the
// operator-facing channel.
package display

import (
	"fmt"
	"sort"
	"strings"

	"buildloop/internal/session"
	"buildloop/internal/tools"
)

const (
	maxArgValueLength  = 100
	defaultPreviewLine = 10
)

// FormatInvocation renders a one-glance view of a tool call. Arg keys are
// sorted so repeated runs log identically.
func FormatInvocation(inv *tools.Invocation) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tool call: %s\n", inv.Tool))
	for _, key := range sortedArgKeys(inv.Args) {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", key, formatValueForDisplay(inv.Args[key])))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatApprovalRequest renders the full approval prompt body, with bounded
// previews for large values like file content and edit strings.
func FormatApprovalRequest(inv *tools.Invocation) string {
	var sb strings.Builder
	sb.WriteString("Approval required\n")
	sb.WriteString("--------------------------------------------------\n")
	sb.WriteString(fmt.Sprintf("Tool: %s\n", inv.Tool))

	switch inv.Tool {
	case "write_file":
		path, _ := inv.Args["path"].(string)
		content, _ := inv.Args["content"].(string)
		sb.WriteString(fmt.Sprintf("Path: %s\n", path))
		sb.WriteString(fmt.Sprintf("Content (%d lines):\n", lineCount(content)))
		sb.WriteString(PreviewContent(content, defaultPreviewLine) + "\n")
	case "edit_file":
		path, _ := inv.Args["path"].(string)
		oldString, _ := inv.Args["old_string"].(string)
		newString, _ := inv.Args["new_string"].(string)
		sb.WriteString(fmt.Sprintf("Path: %s\n", path))
		sb.WriteString("Find:\n")
		sb.WriteString(PreviewContent(oldString, 5) + "\n")
		sb.WriteString("Replace with:\n")
		sb.WriteString(PreviewContent(newString, 5) + "\n")
	default:
		for _, key := range sortedArgKeys(inv.Args) {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", key, formatValueForDisplay(inv.Args[key])))
		}
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

// PreviewContent keeps the leading and trailing lines of a long value and
// elides the middle.
func PreviewContent(content string, maxLines int) string {
	if maxLines <= 0 {
		maxLines = defaultPreviewLine
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= maxLines {
		return content
	}

	head := maxLines / 2
	tail := maxLines - head
	previewLines := make([]string, 0, maxLines+1)
	previewLines = append(previewLines, lines[:head]...)
	previewLines = append(previewLines, fmt.Sprintf("... (%d more lines) ...", len(lines)-maxLines))
	previewLines = append(previewLines, lines[len(lines)-tail:]...)
	return strings.Join(previewLines, "\n")
}

func FormatVerifyResult(v *session.VerifyResult) string {
	if v == nil {
		return "No verification result available."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Verification: %s\n", strings.ToUpper(v.Result)))
	if v.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary: %s\n", v.Summary))
	}
	for _, bug := range v.BreakingBugs {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", bug.Severity, bug.Description))
		if bug.ReproduceSteps != "" {
			sb.WriteString(fmt.Sprintf("      Reproduce: %s\n", bug.ReproduceSteps))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatTodos(todos []session.Todo) string {
	if len(todos) == 0 {
		return "No todos set."
	}
	var sb strings.Builder
	sb.WriteString("Plan:\n")
	for _, todo := range todos {
		marker := " "
		switch todo.Status {
		case session.TodoInProgress:
			marker = ">"
		case session.TodoCompleted:
			marker = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, todo.Title))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func sortedArgKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValueForDisplay(value any) string {
	s := fmt.Sprintf("%v", value)
	s = strings.ReplaceAll(s, "\n", "\\n")

	if len(s) > maxArgValueLength {
		return s[:maxArgValueLength] + "..."
	}
	return s
}

func lineCount(s string) int {
	return len(strings.Split(s, "\n"))
}
