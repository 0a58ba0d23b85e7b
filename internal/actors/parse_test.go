package actors

import (
	"strings"
	"testing"
)

func TestParseBuildStep(t *testing.T) {
	raw := "```json\n{\"thought\": \"list files first\", \"invocations\": [{\"tool\": \"run_command\", \"args\": {\"cmd\": \"ls -la\"}}], \"done\": false}\n```"
	step, err := parseBuildStep(raw)
	if err != nil {
		t.Fatalf("parseBuildStep failed: %v", err)
	}
	if step.Thought != "list files first" {
		t.Errorf("unexpected thought %q", step.Thought)
	}
	if len(step.Invocations) != 1 || step.Invocations[0].Tool != "run_command" {
		t.Fatalf("unexpected invocations: %+v", step.Invocations)
	}
	if got := step.Invocations[0].Args["cmd"]; got != "ls -la" {
		t.Errorf("unexpected command arg %v", got)
	}
}

func TestParseBuildStepDone(t *testing.T) {
	step, err := parseBuildStep(`{"thought": "finished", "done": true, "summary": "App live at http://localhost:3041"}`)
	if err != nil {
		t.Fatalf("parseBuildStep failed: %v", err)
	}
	if !step.Done || step.Summary == "" {
		t.Errorf("expected done step with summary, got %+v", step)
	}
}

func TestParseBuildStepRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "done without summary",
			raw:  `{"thought": "x", "done": true}`,
			want: "without a summary",
		},
		{
			name: "idle step",
			raw:  `{"thought": "x", "done": false}`,
			want: "no invocations",
		},
		{
			name: "not json",
			raw:  "I will now create the file.",
			want: "invalid step JSON",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBuildStep(tt.raw)
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestExtractEndpoint(t *testing.T) {
	tests := []struct {
		name string
		note string
		want string
	}{
		{
			name: "plain localhost",
			note: "The todo app is running at http://localhost:3041 with full CRUD.",
			want: "http://localhost:3041",
		},
		{
			name: "trailing period",
			note: "Visit http://localhost:8080/dashboard.",
			want: "http://localhost:8080/dashboard",
		},
		{
			name: "no url",
			note: "Everything is built but no server was started.",
			want: "",
		},
		{
			name: "https with path",
			note: "Deployed preview: https://example.com/app?tab=1",
			want: "https://example.com/app?tab=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractEndpoint(tt.note); got != tt.want {
				t.Errorf("extractEndpoint(%q) = %q, want %q", tt.note, got, tt.want)
			}
		})
	}
}
