// Package jobsearch wraps the external job-search provider. The pipeline
// treats provider failures as fatal to the search stage; zero results is a
// normal outcome the controller handles separately.
package jobsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Provider searches for job postings matching a role and location.
type Provider interface {
	Search(ctx context.Context, role, location string, limit int) ([]types.JobCandidate, error)
}

// SearchError represents a failure calling the job-search provider.
type SearchError struct {
	Message string
	Cause   error
}

func (e *SearchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job search error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("job search error: %s", e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// defaultBaseURL is the JSearch API root.
const defaultBaseURL = "https://jsearch.p.rapidapi.com"

// Client implements Provider against a JSearch-style API.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a job-search client. baseURL may be empty for the public
// API; tests point it at a local server.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(1)

	return &Client{http: client, apiKey: apiKey}
}

// Search queries the provider and maps its payload onto JobCandidates. The
// provider payload shape varies by plan, so fields are extracted tolerantly
// rather than bound to a rigid struct.
func (c *Client) Search(ctx context.Context, role, location string, limit int) ([]types.JobCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-RapidAPI-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"query":     fmt.Sprintf("%s in %s", role, location),
			"num_pages": "1",
		}).
		Get("/search")
	if err != nil {
		return nil, &SearchError{Message: "request failed", Cause: err}
	}
	if resp.IsError() {
		return nil, &SearchError{Message: fmt.Sprintf("provider returned status %d", resp.StatusCode())}
	}

	body := resp.String()
	if !gjson.Valid(body) {
		return nil, &SearchError{Message: "provider returned invalid JSON"}
	}

	var jobs []types.JobCandidate
	for _, item := range gjson.Get(body, "data").Array() {
		job := types.JobCandidate{
			JobID:       item.Get("job_id").String(),
			Title:       item.Get("job_title").String(),
			Company:     item.Get("employer_name").String(),
			Location:    firstNonEmpty(item.Get("job_city").String(), item.Get("job_country").String()),
			Description: item.Get("job_description").String(),
			SourceURL:   firstNonEmpty(item.Get("job_apply_link").String(), item.Get("employer_website").String()),
			MatchScore:  item.Get("job_match_score").Float(),
		}
		if job.JobID == "" || job.Title == "" || job.Company == "" {
			continue
		}
		jobs = append(jobs, job)
		if len(jobs) >= limit {
			break
		}
	}

	return jobs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
