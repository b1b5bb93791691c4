package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/job-autopilot/internal/llm"
	"github.com/jonathan/job-autopilot/internal/prompts"
	"github.com/jonathan/job-autopilot/internal/schemas"
	"github.com/jonathan/job-autopilot/internal/types"
)

// maxResumeChars truncates pathological uploads before prompting.
const maxResumeChars = 20000

// ParseProfile extracts a structured CandidateProfile from an uploaded
// resume. HTML uploads are reduced to text first; the model output is
// schema-validated before being accepted.
func ParseProfile(ctx context.Context, client llm.Client, content string) (*types.CandidateProfile, error) {
	text := content
	if LooksLikeHTML(content) {
		text = ExtractTextFromHTML(content)
	} else {
		text = CleanText(content)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("resume upload is empty")
	}
	if len(text) > maxResumeChars {
		text = text[:maxResumeChars]
	}

	template := prompts.MustGet("ingestion.json", "structure-profile")
	prompt := prompts.Format(template, map[string]string{"ResumeText": text})

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("profile extraction failed: %w", err)
	}

	responseText = llm.CleanJSONBlock(responseText)
	if err := schemas.Validate(schemas.SchemaCandidateProfile, responseText); err != nil {
		return nil, fmt.Errorf("extracted profile rejected: %w", err)
	}

	var profile types.CandidateProfile
	if err := json.Unmarshal([]byte(responseText), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}
