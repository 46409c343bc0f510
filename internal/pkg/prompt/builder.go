package prompt

import (
	"fmt"
	"strings"

	"github.com/priyamsameer95-sys/hr-screening101/internal/pkg/persistence"
)

// Build renders the agent instruction for one call from its loaded context.
// Pure templating - no side effects
func Build(data *persistence.CallContext) string {
	campaign := data.Campaign
	candidate := data.Candidate

	agent := campaign.AgentName
	if agent == "" {
		agent = "an AI Recruiter"
	}
	company := campaign.CompanyName
	if company == "" {
		company = "the company"
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "You are %s from %s. You are conducting a screening call with %s for the %s position.\n\n",
		agent, company, candidate.FullName, campaign.Position)
	fmt.Fprintf(sb, "CAMPAIGN: %s\n", campaign.Name)
	if campaign.Description.Valid {
		fmt.Fprintf(sb, "ABOUT: %s\n", campaign.Description.String)
	}
	writeCandidateProfile(sb, candidate)

	sb.WriteString("\nCALL FLOW:\n")
	sb.WriteString("1. Greet the candidate and introduce yourself and the company\n")
	sb.WriteString("2. Confirm you are speaking with the right person\n")
	sb.WriteString("3. Confirm this is a good time for a short screening call\n")
	sb.WriteString("4. Ask each screening question below, in order\n")
	sb.WriteString("5. Acknowledge answers briefly before moving on\n")
	sb.WriteString("6. Close by explaining the next steps of the hiring process\n")

	sb.WriteString("\nSCREENING QUESTIONS:\n")
	for i, q := range data.Questions {
		fmt.Fprintf(sb, "%d. %s\n", i+1, q.Text)
	}

	sb.WriteString("\nGUIDELINES:\n")
	sb.WriteString("- Be warm, professional and conversational\n")
	sb.WriteString("- Ask one question at a time and listen actively\n")
	sb.WriteString("- If the candidate asks to reschedule, accommodate and end the call politely\n")
	sb.WriteString("- Do not over-probe unclear answers, note them and move on\n")
	sb.WriteString("\nRemember: this is a real person's career opportunity. Be thoughtful, respectful, and human in your approach.")
	return sb.String()
}

func writeCandidateProfile(sb *strings.Builder, candidate *persistence.Candidate) {
	if !candidate.CurrentCompany.Valid && !candidate.YearsOfExp.Valid {
		return
	}
	sb.WriteString("\nCANDIDATE PROFILE:\n")
	if candidate.CurrentCompany.Valid {
		fmt.Fprintf(sb, "- Currently at %s\n", candidate.CurrentCompany.String)
	}
	if candidate.YearsOfExp.Valid {
		fmt.Fprintf(sb, "- %d years of experience\n", candidate.YearsOfExp.Int32)
	}
}
