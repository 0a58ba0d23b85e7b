package display

import (
	"strings"
	"testing"

	"buildloop/internal/session"
	"buildloop/internal/tools"
)

func TestFormatApprovalRequestWriteFile(t *testing.T) {
	inv := &tools.Invocation{
		Tool: "write_file",
		Args: map[string]any{
			"path":    "index.html",
			"content": "<html>\n<body>hello</body>\n</html>",
		},
	}

	out := FormatApprovalRequest(inv)

	if !strings.Contains(out, "Approval required") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "Path: index.html") {
		t.Error("missing path line")
	}
	if !strings.Contains(out, "hello") {
		t.Error("missing content preview")
	}
}

func TestFormatApprovalRequestTruncatesLongContent(t *testing.T) {
	longContent := strings.Repeat("line\n", 100)
	inv := &tools.Invocation{
		Tool: "write_file",
		Args: map[string]any{"path": "big.txt", "content": longContent},
	}

	out := FormatApprovalRequest(inv)

	if !strings.Contains(out, "more lines) ...") {
		t.Error("expected elision marker for long content")
	}
	if strings.Count(out, "line") >= 100 {
		t.Error("long content was not truncated")
	}
}

// Arg lines must come out in the same order every run, whatever the map
// iteration order happens to be.
func TestFormatInvocationOrdersArgsDeterministically(t *testing.T) {
	inv := &tools.Invocation{
		Tool: "run_command",
		Args: map[string]any{
			"timeout":    120,
			"cmd":        "npm run build",
			"background": false,
		},
	}

	want := FormatInvocation(inv)
	for i := 0; i < 20; i++ {
		if got := FormatInvocation(inv); got != want {
			t.Fatalf("unstable output:\n got:  %q\n want: %q", got, want)
		}
	}
	if !strings.Contains(want, "background: false\n  cmd: npm run build\n  timeout: 120") {
		t.Errorf("args not sorted by key:\n%s", want)
	}
}

func TestPreviewContent(t *testing.T) {
	testCases := []struct {
		name         string
		content      string
		maxLines     int
		expectElided bool
	}{
		{
			name:     "Short content untouched",
			content:  "a\nb\nc",
			maxLines: 10,
		},
		{
			name:         "Long content elided",
			content:      strings.Repeat("x\n", 30),
			maxLines:     10,
			expectElided: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := PreviewContent(tc.content, tc.maxLines)
			elided := strings.Contains(out, "more lines) ...")
			if elided != tc.expectElided {
				t.Errorf("elided=%v, want %v (output %q)", elided, tc.expectElided, out)
			}
			if tc.expectElided {
				if got := len(strings.Split(out, "\n")); got > tc.maxLines+1 {
					t.Errorf("preview has %d lines, want at most %d", got, tc.maxLines+1)
				}
			}
		})
	}
}

func TestFormatVerifyResult(t *testing.T) {
	v := &session.VerifyResult{
		Result:  "fail",
		Summary: "login broken",
		BreakingBugs: []session.Bug{
			{Description: "submit does nothing", ReproduceSteps: "click submit", Severity: session.SeverityCritical},
		},
	}

	out := FormatVerifyResult(v)

	if !strings.Contains(out, "FAIL") {
		t.Error("missing outcome")
	}
	if !strings.Contains(out, "[critical] submit does nothing") {
		t.Error("missing bug line")
	}
	if !strings.Contains(out, "Reproduce: click submit") {
		t.Error("missing reproduce steps")
	}
}

func TestFormatTodos(t *testing.T) {
	out := FormatTodos([]session.Todo{
		{Title: "scaffold app", Status: session.TodoCompleted},
		{Title: "wire api", Status: session.TodoInProgress},
		{Title: "test", Status: session.TodoActive},
	})

	for _, want := range []string{"[x] scaffold app", "[>] wire api", "[ ] test"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
