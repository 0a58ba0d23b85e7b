package listener

import (
	"buildloop/internal/gateway"
)

// ApprovalPrompter asks the user about a gated tool call on the terminal.
type ApprovalPrompter struct{}

func (ApprovalPrompter) Ask(tool, preview string) gateway.Outcome {
	BeginInteractive()
	defer EndInteractive()

	PrintAbove(preview)
	PrintAbove("Approve " + tool + "? [y]es / [n]o / [s]kip approvals for this tool / [sa] skip all approvals")

	for {
		switch GetConfirmation("> ") {
		case "y", "yes":
			return gateway.Outcome{Decision: gateway.Approved}
		case "s", "skip":
			return gateway.Outcome{Decision: gateway.ApprovedSkipTool}
		case "sa", "skip-all":
			return gateway.Outcome{Decision: gateway.ApprovedSkipAll}
		case "n", "no":
			PrintAbove("Denied. What should the agent do instead?")
			return gateway.Outcome{
				Decision:    gateway.Denied,
				Replacement: GetLine("> "),
			}
		default:
			PrintAbove("Please answer y, n, s, or sa.")
		}
	}
}
