package actors

import (
	"fmt"
	"strings"

	"buildloop/internal/display"
	"buildloop/internal/session"
	"buildloop/internal/tools"
)

// Main prompt for one build step
func buildStepPrompt(task, previousFailure string, todos []session.Todo, transcript []string) string {
	var sb strings.Builder

	sb.WriteString("You are a senior full stack engineer who writes correct, minimal, and well structured code. ")
	sb.WriteString("You work inside a sandboxed project directory using the tools below. Respond ONLY with JSON. No extra text.\n\n")

	sb.WriteString("OUTPUT JSON SCHEMA:\n")
	sb.WriteString("{\"thought\": \"<short reasoning>\", \"invocations\": [{\"tool\": \"<name>\", \"args\": {}}], \"done\": <bool>, \"summary\": \"<string, required when done>\"}\n\n")

	sb.WriteString(tools.PromptPart() + "\n")

	sb.WriteString("HARD RULES:\n")
	sb.WriteString("1) Start by running `ls -la` to see the current directory, then read the relevant files before editing.\n")
	sb.WriteString("2) Plan complex work with `set_todos` first and keep it updated as you go.\n")
	sb.WriteString("3) Prefer iterative edits: read a file, then `edit_file` with an exact old_string match.\n")
	sb.WriteString("4) Pass non-interactive flags so commands never hang (e.g. `npx --yes create-next-app@latest myapp --yes`).\n")
	sb.WriteString("5) Build the project when you are done to make sure it works.\n")
	sb.WriteString("6) Start development servers with background=true and an explicit random port, e.g. `PORT=3041 npm run dev`.\n")
	sb.WriteString("7) When done=true, the summary must describe the user-facing result and name the endpoint to test (e.g. http://localhost:3041). No code details.\n\n")

	sb.WriteString(fmt.Sprintf("TASK: %s\n\n", task))

	if previousFailure != "" {
		sb.WriteString("PREVIOUS ATTEMPT FAILED VERIFICATION:\n")
		sb.WriteString(previousFailure + "\n")
		sb.WriteString("Fix these problems in this attempt.\n\n")
	}

	if len(todos) > 0 {
		sb.WriteString(display.FormatTodos(todos) + "\n\n")
	}

	if len(transcript) > 0 {
		sb.WriteString("TOOL RESULTS SO FAR (oldest first):\n")
		for _, entry := range transcript {
			sb.WriteString(entry + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Next step JSON: ")
	return sb.String()
}

func verifyPrompt(task, implementationNote, evidence string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert QA engineer specialized in critical bug detection. ")
	sb.WriteString("Judge ONLY whether the implementation's core functionality works. Respond ONLY with JSON. No extra text.\n\n")

	sb.WriteString("OUTPUT JSON SCHEMA:\n")
	sb.WriteString("{\"result\": \"success\" | \"fail\", \"breaking_bugs\": [{\"description\": \"<string>\", \"reproduce_steps\": \"<string>\", \"severity\": \"critical\" | \"high\" | \"medium\" | \"low\"}], \"summary\": \"<string>\"}\n\n")

	sb.WriteString("REPORT ONLY breaking/critical problems: core features that fail, pages that do not load, forms that do nothing. ")
	sb.WriteString("Do NOT report minor styling issues, small UI inconsistencies, or performance concerns unless they make the app unusable.\n\n")

	sb.WriteString(fmt.Sprintf("TASK: %s\n\n", task))
	sb.WriteString("ENGINEERING IMPLEMENTATION NOTE:\n")
	sb.WriteString(implementationNote + "\n\n")

	if evidence != "" {
		sb.WriteString("ENDPOINT EVIDENCE (fetched just now):\n")
		sb.WriteString(evidence + "\n")
	} else {
		sb.WriteString("ENDPOINT EVIDENCE: none (no endpoint was reported or it could not be fetched). Treat an unreachable promised endpoint as a critical bug.\n")
	}

	sb.WriteString("\nVerdict JSON: ")
	return sb.String()
}
