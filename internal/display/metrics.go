package display

import (
	"fmt"
	"strings"

	"buildloop/internal/metrics"
)

func FormatSessionMetrics(sm *metrics.SessionMetrics) string {
	if sm == nil {
		return "No metrics available."
	}
	var sb strings.Builder
	sb.WriteString("Session metrics:\n")
	sb.WriteString(fmt.Sprintf("- Total: %d ms  (success=%v, attempts=%d)\n",
		sm.DurationMs, sm.Succeeded, len(sm.Attempts)))
	for _, a := range sm.Attempts {
		status := "fail"
		if a.Verified {
			status = "ok"
		}
		sb.WriteString(fmt.Sprintf("  Attempt %d: %d ms  [%s]\n", a.Attempt, a.DurationMs, status))
		for _, inv := range a.Invocations {
			invStatus := "ok"
			if !inv.Success {
				invStatus = "err"
			}
			sb.WriteString(fmt.Sprintf("    - %-18s %5d ms  [%s]\n", inv.Tool, inv.DurationMs, invStatus))
		}
	}
	return sb.String()
}
