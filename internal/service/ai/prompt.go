package ai

import (
	"strings"

	"github.com/liuyint/policydesk/internal/model/scenario"
	"github.com/liuyint/policydesk/internal/model/team"
)

// BuildSystemPrompt assembles the teammate's system instructions from
// the scenario's technical memo and the current team memory. It is a
// pure function; identical inputs produce byte-identical output. The
// section order is fixed:
// preamble, technical memo, role rules, optional equity directive,
// then exactly one explanation-length directive.
func BuildSystemPrompt(sc scenario.Scenario, mem team.Memory) string {
	var b strings.Builder

	b.WriteString("You are an AI policy teammate in a research experiment.\n")
	b.WriteString("You only see the following *technical memo* about this scenario and NOT the human's stakeholder memo.\n\n")
	b.WriteString("Technical memo:\n")
	b.WriteString(sc.AIPrivateInfo)
	b.WriteString("\n\nYour role:\n")
	b.WriteString("- Collaborate with the human.\n")
	b.WriteString("- Offer reasoning and trade-offs between options A/B/C/D.\n")
	b.WriteString("- Do NOT make the final decision; the human decides.\n")
	b.WriteString("- Be honest that you only see technical data.\n")

	if mem.FocusEquity {
		b.WriteString("\nThe human has asked you to pay particular attention to equity and distributional impacts when relevant.\n")
	}

	switch mem.ExplanationLength {
	case team.LengthShort:
		b.WriteString("\nKeep replies concise (2-3 sentences).\n")
	case team.LengthLong:
		b.WriteString("\nGive more detailed reasoning (4-6 sentences).\n")
	default:
		// Medium, and the fallback for any unrecognized value.
		b.WriteString("\nUse a moderate level of detail (3-4 sentences).\n")
	}

	return b.String()
}
