//go:build !windows

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"buildloop/internal/session"
	"buildloop/internal/shell"
	"buildloop/internal/telemetry"
)

// scriptedActor returns canned outputs in order and counts its calls.
type scriptedActor struct {
	outputs []string
	errs    []error
	calls   int
	inputs  []string
	onAct   func(ctx context.Context)
}

func (a *scriptedActor) Act(ctx context.Context, input string) (string, error) {
	idx := a.calls
	a.calls++
	a.inputs = append(a.inputs, input)
	if a.onAct != nil {
		a.onAct(ctx)
	}
	if idx < len(a.errs) && a.errs[idx] != nil {
		return "", a.errs[idx]
	}
	if idx < len(a.outputs) {
		return a.outputs[idx], nil
	}
	return "", fmt.Errorf("scripted actor exhausted after %d calls", idx)
}

func verifyJSON(result, summary string) string {
	v := session.VerifyResult{Result: result, Summary: summary}
	b, _ := json.Marshal(v)
	return string(b)
}

func newTestOrchestrator(t *testing.T, build, verify Actor) (*Orchestrator, *session.Session) {
	t.Helper()
	sess, err := session.New("build a web app", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sess.Procs.Cleanup)
	return New(sess, nil, build, verify, telemetry.Nop()), sess
}

func TestRunStopsAtFirstSuccess(t *testing.T) {
	build := &scriptedActor{outputs: []string{"done v1", "done v2"}}
	verify := &scriptedActor{outputs: []string{
		verifyJSON("fail", "broken button"),
		verifyJSON("success", "all good"),
	}}
	o, _ := newTestOrchestrator(t, build, verify)

	verdict, sm, err := o.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !verdict.Success() {
		t.Errorf("verdict: %+v", verdict)
	}
	if build.calls != 2 || verify.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got build=%d verify=%d", build.calls, verify.calls)
	}
	if o.State() != StateSucceeded {
		t.Errorf("state: %s", o.State())
	}
	if !sm.Succeeded || len(sm.Attempts) != 2 {
		t.Errorf("metrics: %+v", sm)
	}
}

func TestRunExhaustionReturnsLastFailure(t *testing.T) {
	build := &scriptedActor{outputs: []string{"a", "b", "c"}}
	verify := &scriptedActor{outputs: []string{
		verifyJSON("fail", "bug one"),
		verifyJSON("fail", "bug two"),
		verifyJSON("fail", "bug three"),
	}}
	o, _ := newTestOrchestrator(t, build, verify)

	verdict, _, err := o.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("exhaustion must not be a hard failure: %v", err)
	}
	if verdict.Success() {
		t.Error("expected failing verdict")
	}
	if verdict.Summary != "bug three" {
		t.Errorf("expected the LAST failing result, got %q", verdict.Summary)
	}
	if build.calls != 3 {
		t.Errorf("expected exactly maxAttempts attempts, got %d", build.calls)
	}
	if o.State() != StateExhausted {
		t.Errorf("state: %s", o.State())
	}
}

func TestRunFeedsFailureIntoNextAttempt(t *testing.T) {
	build := &scriptedActor{outputs: []string{"a", "b"}}
	verify := &scriptedActor{outputs: []string{
		verifyJSON("fail", "login broken"),
		verifyJSON("success", "fixed"),
	}}
	o, _ := newTestOrchestrator(t, build, verify)

	if _, _, err := o.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}

	var first, second BuildInput
	if err := json.Unmarshal([]byte(build.inputs[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(build.inputs[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first.PreviousFailure != "" {
		t.Errorf("first attempt should have no failure context: %q", first.PreviousFailure)
	}
	if second.PreviousFailure == "" {
		t.Error("second attempt should carry the prior failure")
	}
}

func TestRunCleansUpProcessesEveryAttempt(t *testing.T) {
	var sess *session.Session
	build := &scriptedActor{
		outputs: []string{"a", "b"},
		onAct: func(ctx context.Context) {
			if _, err := shell.Spawn(sess.Root, "sleep 30", sess.Procs); err != nil {
				t.Errorf("spawn: %v", err)
			}
		},
	}
	verify := &scriptedActor{outputs: []string{
		verifyJSON("fail", "nope"),
		verifyJSON("success", "ok"),
	}}
	o, s := newTestOrchestrator(t, build, verify)
	sess = s

	if _, _, err := o.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if sess.Procs.Count() != 0 {
		t.Errorf("registry not drained after attempts: %d", sess.Procs.Count())
	}
}

func TestRunCleansUpWhenVerifyActorFails(t *testing.T) {
	var sess *session.Session
	build := &scriptedActor{
		outputs: []string{"a"},
		onAct: func(ctx context.Context) {
			if _, err := shell.Spawn(sess.Root, "sleep 30", sess.Procs); err != nil {
				t.Errorf("spawn: %v", err)
			}
		},
	}
	verify := &scriptedActor{errs: []error{errors.New("verifier crashed")}}
	o, s := newTestOrchestrator(t, build, verify)
	sess = s

	verdict, _, err := o.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("actor failure must fold into a failing verdict: %v", err)
	}
	if verdict.Success() {
		t.Error("expected failing verdict")
	}
	if sess.Procs.Count() != 0 {
		t.Error("registry not drained after failed attempt")
	}
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	build := &scriptedActor{
		outputs: []string{"a", "b", "c"},
		onAct:   func(context.Context) { cancel() },
	}
	verify := &scriptedActor{errs: []error{context.Canceled, context.Canceled, context.Canceled}}
	o, _ := newTestOrchestrator(t, build, verify)

	_, _, err := o.Run(ctx, 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if build.calls != 1 {
		t.Errorf("no retry after cancellation, got %d attempts", build.calls)
	}
}

func TestParseVerifyResult(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expectError bool
		expectOK    bool
	}{
		{
			name:     "Plain JSON",
			raw:      `{"result":"success","breaking_bugs":[],"summary":"fine"}`,
			expectOK: true,
		},
		{
			name:     "Fenced JSON",
			raw:      "```json\n{\"result\":\"fail\",\"breaking_bugs\":[{\"description\":\"d\",\"reproduce_steps\":\"r\",\"severity\":\"critical\"}],\"summary\":\"s\"}\n```",
			expectOK: false,
		},
		{
			name:        "Invalid outcome",
			raw:         `{"result":"maybe","summary":"?"}`,
			expectError: true,
		},
		{
			name:        "Not JSON",
			raw:         "sure, looks good to me!",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := ParseVerifyResult(tc.raw)
			if tc.expectError {
				if err == nil {
					t.Fatalf("expected parse error, got %+v", verdict)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict.Success() != tc.expectOK {
				t.Errorf("success=%v, want %v", verdict.Success(), tc.expectOK)
			}
		})
	}
}
