package actors

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"buildloop/internal/tools"
)

// buildStep is one model turn in the build loop.
type buildStep struct {
	Thought     string             `json:"thought"`
	Invocations []tools.Invocation `json:"invocations"`
	Done        bool               `json:"done"`
	Summary     string             `json:"summary"`
}

func parseBuildStep(raw string) (*buildStep, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var step buildStep
	if err := json.Unmarshal([]byte(cleaned), &step); err != nil {
		return nil, fmt.Errorf("invalid step JSON: %w", err)
	}
	if step.Done && step.Summary == "" {
		return nil, fmt.Errorf("step marked done without a summary")
	}
	if !step.Done && len(step.Invocations) == 0 {
		return nil, fmt.Errorf("step has no invocations and is not done")
	}
	return &step, nil
}

var urlPattern = regexp.MustCompile(`https?://[A-Za-z0-9.\-]+(?::\d+)?(?:/[A-Za-z0-9./_\-?=&%]*)?`)

// extractEndpoint pulls the first URL out of an implementation note.
func extractEndpoint(note string) string {
	return strings.TrimRight(urlPattern.FindString(note), ".,)")
}
