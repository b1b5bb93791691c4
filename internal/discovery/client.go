package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Provider is the discovery/verification API surface the cascade consumes.
// The free tier allows roughly 25 domain searches and 50 verifications per
// period, so callers must treat both operations as quota-limited.
type Provider interface {
	// SearchDomain returns known addresses at the domain. An empty slice is a
	// normal result for unknown domains.
	SearchDomain(ctx context.Context, domain string) ([]Candidate, error)
	// VerifyEmail classifies the deliverability of one address.
	VerifyEmail(ctx context.Context, email string) (types.VerifyResult, error)
}

// defaultBaseURL is the Hunter v2 API root.
const defaultBaseURL = "https://api.hunter.io/v2"

// HunterClient implements Provider against the Hunter.io API.
type HunterClient struct {
	http   *resty.Client
	apiKey string
}

// NewHunterClient creates a Provider backed by Hunter.io. baseURL may be
// empty to use the public API; tests point it at a local server.
func NewHunterClient(apiKey, baseURL string) *HunterClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20 * time.Second).
		SetRetryCount(0) // retries burn quota; the cascade handles failures

	return &HunterClient{http: client, apiKey: apiKey}
}

// domainSearchResponse mirrors the subset of the domain-search payload we use.
type domainSearchResponse struct {
	Data struct {
		Domain string `json:"domain"`
		Emails []struct {
			Value      string `json:"value"`
			Confidence int    `json:"confidence"`
			FirstName  string `json:"first_name"`
			LastName   string `json:"last_name"`
			Position   string `json:"position"`
			Department string `json:"department"`
		} `json:"emails"`
	} `json:"data"`
	Errors []struct {
		Details string `json:"details"`
	} `json:"errors"`
}

// verifyResponse mirrors the subset of the email-verifier payload we use.
type verifyResponse struct {
	Data struct {
		Status string `json:"status"`
		Result string `json:"result"`
	} `json:"data"`
	Errors []struct {
		Details string `json:"details"`
	} `json:"errors"`
}

// SearchDomain queries the domain-search endpoint.
func (c *HunterClient) SearchDomain(ctx context.Context, domain string) ([]Candidate, error) {
	var payload domainSearchResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"domain":  domain,
			"api_key": c.apiKey,
		}).
		SetResult(&payload).
		SetError(&payload).
		Get("/domain-search")
	if err != nil {
		return nil, &ProviderError{Operation: "domain-search", Message: "request failed", Cause: err}
	}
	if resp.IsError() {
		return nil, &ProviderError{
			Operation: "domain-search",
			Message:   fmt.Sprintf("status %d: %s", resp.StatusCode(), firstErrorDetail(payload.Errors)),
		}
	}

	candidates := make([]Candidate, 0, len(payload.Data.Emails))
	for _, e := range payload.Data.Emails {
		candidates = append(candidates, Candidate{
			Email:      e.Value,
			Confidence: e.Confidence,
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Position:   e.Position,
			Department: e.Department,
		})
	}
	return candidates, nil
}

// VerifyEmail calls the verification endpoint and maps the provider status
// onto the pipeline's deliverability classification.
func (c *HunterClient) VerifyEmail(ctx context.Context, email string) (types.VerifyResult, error) {
	var payload verifyResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"email":   email,
			"api_key": c.apiKey,
		}).
		SetResult(&payload).
		SetError(&payload).
		Get("/email-verifier")
	if err != nil {
		return types.VerifyUnknown, &ProviderError{Operation: "email-verifier", Message: "request failed", Cause: err}
	}
	if resp.IsError() {
		return types.VerifyUnknown, &ProviderError{
			Operation: "email-verifier",
			Message:   fmt.Sprintf("status %d: %s", resp.StatusCode(), firstErrorDetail(payload.Errors)),
		}
	}

	status := payload.Data.Status
	if status == "" {
		status = payload.Data.Result
	}

	switch status {
	case "valid", "deliverable":
		return types.VerifyDeliverable, nil
	case "accept_all", "risky", "webmail":
		return types.VerifyRisky, nil
	case "invalid", "undeliverable", "disposable", "blocked":
		return types.VerifyUndeliverable, nil
	default:
		return types.VerifyUnknown, nil
	}
}

func firstErrorDetail(errs []struct {
	Details string `json:"details"`
}) string {
	if len(errs) > 0 {
		return errs[0].Details
	}
	return "no detail"
}
