package metrics

import "time"

type InvocationMetrics struct {
	Tool       string    `json:"tool"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Err        string    `json:"err,omitempty"`
}

type AttemptMetrics struct {
	Attempt     int                 `json:"attempt"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	DurationMs  int64               `json:"duration_ms"`
	Verified    bool                `json:"verified"`
	Invocations []InvocationMetrics `json:"invocations,omitempty"`
}

type SessionMetrics struct {
	SessionID  string           `json:"session_id"`
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	DurationMs int64            `json:"duration_ms"`
	Succeeded  bool             `json:"succeeded"`
	Attempts   []AttemptMetrics `json:"attempts"`
}

// Compute derived fields for an attempt.
func (a *AttemptMetrics) Finalize() {
	a.DurationMs = a.End.Sub(a.Start).Milliseconds()
}
