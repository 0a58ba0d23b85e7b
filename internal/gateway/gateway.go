// Package gateway is the single choke point between the build actor and the
// session's tools. Every invocation passes through the approval policy
// before anything touches the filesystem or spawns a process.
package gateway

import (
	"context"
	"sync"
	"time"

	"buildloop/internal/display"
	"buildloop/internal/logger"
	"buildloop/internal/metrics"
	"buildloop/internal/session"
	"buildloop/internal/telemetry"
	"buildloop/internal/tools"
)

type Decision int

const (
	Approved Decision = iota
	Denied
	ApprovedSkipTool
	ApprovedSkipAll
)

// Outcome is the tagged result of one approval prompt. Replacement carries
// the human's new instructions when the decision is Denied.
type Outcome struct {
	Decision    Decision
	Replacement string
}

// Prompter is the human-facing approval channel. Ask blocks until the
// operator answers; implementations own exactly one interactive channel, so
// the gateway never issues overlapping prompts.
type Prompter interface {
	Ask(tool, preview string) Outcome
}

// Destructive tools start out gated. The set only ever shrinks within a
// session.
func defaultApprovalPolicy() map[string]struct{} {
	return map[string]struct{}{
		"write_file":  {},
		"edit_file":   {},
		"run_command": {},
	}
}

type Gateway struct {
	sess     *session.Session
	sink     telemetry.Sink
	prompter Prompter

	mu         sync.Mutex // serializes prompt + policy mutation + execution
	approval   map[string]struct{}
	invMetrics []metrics.InvocationMetrics
}

func New(sess *session.Session, sink telemetry.Sink, prompter Prompter) *Gateway {
	if sink == nil {
		sink = telemetry.Nop()
	}
	return &Gateway{
		sess:     sess,
		sink:     sink,
		prompter: prompter,
		approval: defaultApprovalPolicy(),
	}
}

// RequiresApproval reports whether the named tool is currently gated.
func (g *Gateway) RequiresApproval(tool string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, gated := g.approval[tool]
	return gated
}

// Invoke runs one tool invocation through the approval gate and the
// underlying tool, propagating the tool's result or typed error unchanged.
// A denial does not execute anything; the operator's replacement
// instructions come back as an ordinary tool result.
func (g *Gateway) Invoke(ctx context.Context, inv *tools.Invocation) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sink.Event("tool.invocation", map[string]any{
		"tool": inv.Tool,
		"args": display.FormatInvocation(inv),
	})

	if _, gated := g.approval[inv.Tool]; gated && g.prompter != nil {
		outcome := g.prompter.Ask(inv.Tool, display.FormatApprovalRequest(inv))
		switch outcome.Decision {
		case Denied:
			if logger.Log != nil {
				logger.Log.Printf("[gateway] %s declined by operator", inv.Tool)
			}
			g.sink.Event("tool.declined", map[string]any{"tool": inv.Tool})
			return map[string]any{
				"status":           "declined_by_user",
				"new_instructions": outcome.Replacement,
			}, nil
		case ApprovedSkipTool:
			delete(g.approval, inv.Tool)
		case ApprovedSkipAll:
			g.approval = map[string]struct{}{}
		}
	}

	im := metrics.InvocationMetrics{Tool: inv.Tool, Start: time.Now()}
	result, err := tools.Execute(ctx, g.sess, inv)
	im.End = time.Now()
	im.DurationMs = im.End.Sub(im.Start).Milliseconds()
	im.Success = err == nil
	if err != nil {
		im.Err = err.Error()
	}
	g.invMetrics = append(g.invMetrics, im)

	fields := map[string]any{"tool": inv.Tool, "success": err == nil}
	if err != nil {
		fields["err"] = err.Error()
	}
	g.sink.Event("tool.completed", fields)

	return result, err
}

// DrainInvocationMetrics returns the metrics collected since the last drain.
// The orchestrator calls this at attempt boundaries.
func (g *Gateway) DrainInvocationMetrics() []metrics.InvocationMetrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.invMetrics
	g.invMetrics = nil
	return out
}
