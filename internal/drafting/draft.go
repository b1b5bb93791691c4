// Package drafting writes outreach-email drafts for retained jobs using the
// text-generation collaborator.
package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-autopilot/internal/discovery"
	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/prompts"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Drafter produces a draft outreach email for one job.
type Drafter interface {
	DraftEmail(ctx context.Context, profile *types.CandidateProfile, job types.JobCandidate, hrEmail string) (subject, body string, err error)
	// EstimateHREmail guesses a generic recruiting address when discovery
	// found nothing. A best-effort fallback, clearly labelled as an estimate
	// in the resulting draft.
	EstimateHREmail(ctx context.Context, company, domain string) (string, error)
}

// LLMDrafter implements Drafter on the llm.Client abstraction.
type LLMDrafter struct {
	client llm.Client
}

// NewLLMDrafter creates a drafting worker.
func NewLLMDrafter(client llm.Client) *LLMDrafter {
	return &LLMDrafter{client: client}
}

type draftResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DraftEmail writes subject and body for one outreach email.
func (d *LLMDrafter) DraftEmail(ctx context.Context, profile *types.CandidateProfile, job types.JobCandidate, hrEmail string) (string, string, error) {
	template := prompts.MustGet("drafting.json", "outreach-email")
	prompt := prompts.Format(template, map[string]string{
		"CandidateName": profile.Name,
		"JobTitle":      job.Title,
		"Company":       job.Company,
		"Summary":       profile.Summary,
		"HREmail":       hrEmail,
	})

	responseText, err := d.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", "", fmt.Errorf("draft generation failed: %w", err)
	}

	var parsed draftResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &parsed); err != nil {
		return "", "", fmt.Errorf("failed to parse draft: %w", err)
	}
	if strings.TrimSpace(parsed.Subject) == "" || strings.TrimSpace(parsed.Body) == "" {
		return "", "", fmt.Errorf("draft response missing subject or body")
	}

	return parsed.Subject, parsed.Body, nil
}

type estimateResponse struct {
	Email string `json:"email"`
}

// EstimateHREmail asks the model for the most likely generic recruiting
// alias at the company's domain.
func (d *LLMDrafter) EstimateHREmail(ctx context.Context, company, domain string) (string, error) {
	if domain == "" {
		domain = discovery.DeriveDomain(company, "")
	}
	if domain == "" {
		return "", fmt.Errorf("no domain to estimate an address for")
	}

	template := prompts.MustGet("drafting.json", "estimate-hr-email")
	prompt := prompts.Format(template, map[string]string{
		"Company": company,
		"Domain":  domain,
	})

	responseText, err := d.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("estimate generation failed: %w", err)
	}

	var parsed estimateResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse estimate: %w", err)
	}

	email := strings.TrimSpace(strings.ToLower(parsed.Email))
	if !strings.Contains(email, "@") || !strings.HasSuffix(email, domain) {
		return "", fmt.Errorf("estimated address %q does not belong to %s", parsed.Email, domain)
	}
	return email, nil
}
