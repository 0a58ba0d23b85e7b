// Package orchestrator drives one session through bounded build/verify
// attempts. It depends on the two actors only through the opaque Actor
// interface, so scripted stand-ins can exercise the state machine without
// any real generation.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"buildloop/internal/gateway"
	"buildloop/internal/logger"
	"buildloop/internal/metrics"
	"buildloop/internal/session"
	"buildloop/internal/telemetry"
)

const (
	StateBuilding  = "BUILDING"
	StateVerifying = "VERIFYING"
	StateRetrying  = "RETRYING"
	StateSucceeded = "SUCCEEDED"
	StateExhausted = "EXHAUSTED"
)

// Actor is one autonomous participant: the build actor or the verify actor.
type Actor interface {
	Act(ctx context.Context, input string) (string, error)
}

// BuildInput is what the build actor receives each attempt.
type BuildInput struct {
	Task            string `json:"task"`
	PreviousFailure string `json:"previous_failure,omitempty"`
}

// VerifyInput is what the verify actor receives: the task plus a structured
// summary of the build actor's output.
type VerifyInput struct {
	Task               string `json:"task"`
	ImplementationNote string `json:"implementation_note"`
}

type Orchestrator struct {
	sess   *session.Session
	gw     *gateway.Gateway
	build  Actor
	verify Actor
	sink   telemetry.Sink

	state string
}

func New(sess *session.Session, gw *gateway.Gateway, build, verify Actor, sink telemetry.Sink) *Orchestrator {
	if sink == nil {
		sink = telemetry.Nop()
	}
	return &Orchestrator{
		sess:   sess,
		gw:     gw,
		build:  build,
		verify: verify,
		sink:   sink,
		state:  StateBuilding,
	}
}

func (o *Orchestrator) State() string { return o.state }

// Run performs up to maxAttempts build/verify cycles. It stops at the first
// verified success; on exhaustion it returns the last failing VerifyResult
// as a normal value, not an error. The process registry is drained after
// every attempt regardless of how the attempt ended.
func (o *Orchestrator) Run(ctx context.Context, maxAttempts int) (*session.VerifyResult, *metrics.SessionMetrics, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	sm := &metrics.SessionMetrics{SessionID: o.sess.ID, Start: time.Now()}
	defer func() {
		sm.End = time.Now()
		sm.DurationMs = sm.End.Sub(sm.Start).Milliseconds()
	}()

	var lastVerify *session.VerifyResult
	previousFailure := ""

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastVerify, sm, err
		}

		verdict, am, err := o.runAttempt(ctx, attempt, previousFailure)
		sm.Attempts = append(sm.Attempts, am)

		if err != nil {
			if ctx.Err() != nil {
				return lastVerify, sm, ctx.Err()
			}
			if logger.Log != nil {
				logger.Log.Printf("[orchestrator] Attempt %d/%d failed (session %s): %v",
					attempt, maxAttempts, o.sess.ID, err)
			}
			lastVerify = &session.VerifyResult{
				Result:  "fail",
				Summary: fmt.Sprintf("attempt %d did not complete: %v", attempt, err),
			}
			previousFailure = lastVerify.Summary
			o.state = StateRetrying
			continue
		}

		lastVerify = verdict
		if verdict.Success() {
			o.state = StateSucceeded
			sm.Succeeded = true
			return verdict, sm, nil
		}

		previousFailure = failureNote(verdict)
		o.state = StateRetrying
	}

	o.state = StateExhausted
	return lastVerify, sm, nil
}

// runAttempt runs one build/verify cycle. Cleanup of background processes
// is deferred so it executes even when either actor's call fails.
func (o *Orchestrator) runAttempt(ctx context.Context, attempt int, previousFailure string) (verdict *session.VerifyResult, am metrics.AttemptMetrics, err error) {
	am = metrics.AttemptMetrics{Attempt: attempt, Start: time.Now()}
	defer func() {
		am.End = time.Now()
		am.Finalize()
		if o.gw != nil {
			am.Invocations = o.gw.DrainInvocationMetrics()
		}
	}()
	defer o.sess.Procs.Cleanup()

	endSpan := o.sink.StartSpan(fmt.Sprintf("attempt-%d", attempt))
	defer endSpan()

	o.state = StateBuilding
	buildInput, err := json.Marshal(BuildInput{Task: o.sess.Task, PreviousFailure: previousFailure})
	if err != nil {
		return nil, am, err
	}

	endBuild := o.sink.StartSpan(fmt.Sprintf("build:%s", o.sess.Task))
	buildOut, err := o.build.Act(ctx, string(buildInput))
	endBuild()
	if err != nil {
		return nil, am, fmt.Errorf("build actor: %w", err)
	}

	o.state = StateVerifying
	verifyInput, err := json.Marshal(VerifyInput{Task: o.sess.Task, ImplementationNote: buildOut})
	if err != nil {
		return nil, am, err
	}

	endVerify := o.sink.StartSpan(fmt.Sprintf("verify:%s", o.sess.Task))
	verifyOut, err := o.verify.Act(ctx, string(verifyInput))
	endVerify()
	if err != nil {
		return nil, am, fmt.Errorf("verify actor: %w", err)
	}

	verdict, err = ParseVerifyResult(verifyOut)
	if err != nil {
		return nil, am, err
	}
	am.Verified = verdict.Success()
	return verdict, am, nil
}

// ParseVerifyResult decodes the verify actor's output, tolerating markdown
// code fences around the JSON.
func ParseVerifyResult(raw string) (*session.VerifyResult, error) {
	cleanJSON := strings.TrimSpace(raw)
	cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
	cleanJSON = strings.TrimPrefix(cleanJSON, "```")
	cleanJSON = strings.TrimSuffix(cleanJSON, "```")
	cleanJSON = strings.TrimSpace(cleanJSON)

	var verdict session.VerifyResult
	if err := json.Unmarshal([]byte(cleanJSON), &verdict); err != nil {
		return nil, fmt.Errorf("error parsing verify result JSON: %v\nRaw Response: %s", err, raw)
	}
	if verdict.Result != "success" && verdict.Result != "fail" {
		return nil, fmt.Errorf("verify result has invalid outcome %q", verdict.Result)
	}
	return &verdict, nil
}

func failureNote(v *session.VerifyResult) string {
	var sb strings.Builder
	sb.WriteString(v.Summary)
	for _, bug := range v.BreakingBugs {
		sb.WriteString(fmt.Sprintf("\n- [%s] %s (reproduce: %s)", bug.Severity, bug.Description, bug.ReproduceSteps))
	}
	return sb.String()
}
