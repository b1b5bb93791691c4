package types

// JobCandidate is one job posting returned by the search provider.
// Immutable once fetched.
type JobCandidate struct {
	JobID       string  `json:"job_id"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location,omitempty"`
	Description string  `json:"description,omitempty"`
	SourceURL   string  `json:"source_url,omitempty"`
	MatchScore  float64 `json:"match_score,omitempty"`
}
