package actors

import (
	"context"
	"encoding/json"
	"fmt"

	"buildloop/internal/llm_client"
	"buildloop/internal/orchestrator"
	"buildloop/internal/probe"
	"buildloop/internal/telemetry"
)

var verifySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"result": map[string]any{"type": "string", "enum": []string{"success", "fail"}},
		"breaking_bugs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"description":     map[string]any{"type": "string"},
					"reproduce_steps": map[string]any{"type": "string"},
					"severity":        map[string]any{"type": "string", "enum": []string{"critical", "high", "medium", "low"}},
				},
				"required": []string{"description", "severity"},
			},
		},
		"summary": map[string]any{"type": "string"},
	},
	"required": []string{"result", "summary"},
}

type VerifyActor struct {
	sink  telemetry.Sink
	model string
}

func NewVerifyActor(sink telemetry.Sink, model string) *VerifyActor {
	if sink == nil {
		sink = telemetry.Nop()
	}
	return &VerifyActor{sink: sink, model: model}
}

// Act fetches the endpoint named in the implementation note, hands the
// evidence to the model, and returns its raw verdict JSON.
func (a *VerifyActor) Act(ctx context.Context, input string) (string, error) {
	var in orchestrator.VerifyInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("invalid verify input: %w", err)
	}

	evidence := ""
	if endpoint := extractEndpoint(in.ImplementationNote); endpoint != "" {
		report, err := probe.Fetch(ctx, endpoint)
		if err != nil {
			evidence = fmt.Sprintf("GET %s failed: %v", endpoint, err)
		} else {
			evidence = report.Summary()
		}
		a.sink.Event("verify.probe", map[string]any{
			"endpoint":  endpoint,
			"reachable": err == nil,
		})
	}

	raw, err := llm_client.GenerateJSON(ctx, verifyPrompt(in.Task, in.ImplementationNote, evidence), a.model, verifySchema)
	if err != nil {
		return "", fmt.Errorf("verify verdict: %w", err)
	}
	return raw, nil
}
