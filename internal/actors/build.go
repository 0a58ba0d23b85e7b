// Package actors holds the two model-backed roles of a session: the build
// actor that drives tools through the gateway, and the verify actor that
// judges the result.
package actors

import (
	"context"
	"encoding/json"
	"fmt"

	"buildloop/internal/gateway"
	"buildloop/internal/llm_client"
	"buildloop/internal/orchestrator"
	"buildloop/internal/session"
	"buildloop/internal/telemetry"
	"buildloop/internal/tools"
)

const defaultStepBudget = 40

var buildStepSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"thought": map[string]any{"type": "string"},
		"invocations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tool": map[string]any{"type": "string"},
					"args": map[string]any{"type": "object"},
				},
				"required": []string{"tool", "args"},
			},
		},
		"done":    map[string]any{"type": "boolean"},
		"summary": map[string]any{"type": "string"},
	},
	"required": []string{"thought", "done"},
}

type BuildActor struct {
	sess       *session.Session
	gw         *gateway.Gateway
	sink       telemetry.Sink
	model      string
	stepBudget int
}

func NewBuildActor(sess *session.Session, gw *gateway.Gateway, sink telemetry.Sink, model string) *BuildActor {
	if sink == nil {
		sink = telemetry.Nop()
	}
	return &BuildActor{
		sess:       sess,
		gw:         gw,
		sink:       sink,
		model:      model,
		stepBudget: defaultStepBudget,
	}
}

// Act runs the generate/invoke loop until the model reports done or the step
// budget runs out. The returned string is the implementation summary.
func (a *BuildActor) Act(ctx context.Context, input string) (string, error) {
	var in orchestrator.BuildInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("invalid build input: %w", err)
	}

	var transcript []string
	for i := 0; i < a.stepBudget; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		prompt := buildStepPrompt(in.Task, in.PreviousFailure, a.sess.Todos(), transcript)
		raw, err := llm_client.GenerateJSON(ctx, prompt, a.model, buildStepSchema)
		if err != nil {
			return "", fmt.Errorf("build step %d: %w", i+1, err)
		}

		step, err := parseBuildStep(raw)
		if err != nil {
			// Malformed output goes back to the model as feedback.
			transcript = append(transcript, fmt.Sprintf("Error: your last response was rejected: %v", err))
			continue
		}
		a.sink.Event("build.step", map[string]any{
			"step":        i + 1,
			"thought":     step.Thought,
			"invocations": len(step.Invocations),
		})

		for idx := range step.Invocations {
			entry, err := a.invoke(ctx, &step.Invocations[idx])
			if err != nil {
				return "", err
			}
			transcript = append(transcript, entry)
		}

		if step.Done {
			return step.Summary, nil
		}
	}
	return "", fmt.Errorf("build actor ran out of steps (%d) without finishing", a.stepBudget)
}

// invoke runs one tool call and folds the outcome, success or retryable
// failure, into a transcript entry. Fatal errors abort the actor.
func (a *BuildActor) invoke(ctx context.Context, inv *tools.Invocation) (string, error) {
	result, err := a.gw.Invoke(ctx, inv)
	if err != nil {
		if tools.IsRetryable(err) {
			return fmt.Sprintf("%s -> Error: %v", inv.Tool, err), nil
		}
		return "", err
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result of %s: %w", inv.Tool, err)
	}
	return fmt.Sprintf("%s -> %s", inv.Tool, encoded), nil
}
