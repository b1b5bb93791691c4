// Package tailoring produces a tailored resume per job posting using the
// text-generation collaborator, with per-item error isolation.
package tailoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/prompts"
	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/types"
)

// Tailor generates one tailored CV per job candidate.
type Tailor interface {
	TailorCV(ctx context.Context, profile *types.CandidateProfile, job types.JobCandidate) (*types.CVResult, error)
}

// maxDescriptionChars truncates very long postings before prompting; beyond
// this the extra text stops improving tailoring quality.
const maxDescriptionChars = 8000

// LLMTailor implements Tailor on the llm.Client abstraction.
type LLMTailor struct {
	client llm.Client
}

// NewLLMTailor creates a tailoring worker.
func NewLLMTailor(client llm.Client) *LLMTailor {
	return &LLMTailor{client: client}
}

// tailorResponse is the JSON shape the model must return.
type tailorResponse struct {
	CV              *types.TailoredCV `json:"cv"`
	ATSScore        types.ATSScore    `json:"ats_score"`
	MatchedKeywords []string          `json:"matched_keywords"`
	MissingKeywords []string          `json:"missing_keywords"`
	Suggestions     []string          `json:"suggestions"`
}

// TailorCV tailors the candidate's resume to one posting. The raw model
// output is schema-validated before being accepted.
func (t *LLMTailor) TailorCV(ctx context.Context, profile *types.CandidateProfile, job types.JobCandidate) (*types.CVResult, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	description := job.Description
	if len(description) > maxDescriptionChars {
		description = description[:maxDescriptionChars]
	}

	template := prompts.MustGet("tailoring.json", "tailor-cv")
	prompt := prompts.Format(template, map[string]string{
		"JobTitle":    job.Title,
		"Company":     job.Company,
		"Description": description,
		"Profile":     string(profileJSON),
	})

	responseText, err := t.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("tailoring generation failed: %w", err)
	}

	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.SchemaTailoredCV, responseText); err != nil {
		return nil, fmt.Errorf("tailored CV rejected: %w", err)
	}

	var parsed tailorResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse tailored CV: %w", err)
	}

	return &types.CVResult{
		JobID:           job.JobID,
		CV:              parsed.CV,
		ATSScore:        parsed.ATSScore,
		MatchedKeywords: parsed.MatchedKeywords,
		MissingKeywords: parsed.MissingKeywords,
		Suggestions:     parsed.Suggestions,
	}, nil
}
