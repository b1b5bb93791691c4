// Package discovery finds and verifies recruiting contact emails for a
// company using a Hunter-style domain-search and verification provider.
package discovery

import "github.com/jonathan/job-autopilot/internal/types"

// Candidate is one email address returned by the domain-search endpoint.
type Candidate struct {
	Email      string `json:"email"`
	Confidence int    `json:"confidence"` // provider confidence, 0-100
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
}

// RankedCandidate pairs a candidate with its recruiting-relevance score.
type RankedCandidate struct {
	Candidate
	Score int `json:"score"`
}

// NotFoundReason distinguishes why discovery produced no address.
type NotFoundReason string

// Not-found reason codes.
const (
	// ReasonNoDomain means no plausible domain could be derived from the input.
	ReasonNoDomain NotFoundReason = "no_domain"
	// ReasonNoAddresses means the provider returned zero addresses for the domain.
	ReasonNoAddresses NotFoundReason = "no_addresses"
	// ReasonAllUndeliverable means addresses existed but every verified
	// candidate came back undeliverable.
	ReasonAllUndeliverable NotFoundReason = "all_undeliverable"
)

// Result is the outcome of a discovery run. "Not found" is a normal result,
// never an error: Found is false and Reason says why.
type Result struct {
	Found        bool               `json:"found"`
	Reason       NotFoundReason     `json:"reason,omitempty"`
	Email        string             `json:"email,omitempty"`
	Confidence   int                `json:"confidence,omitempty"`
	Verified     bool               `json:"verified"`
	VerifyResult types.VerifyResult `json:"verify_result,omitempty"`
	// Alternatives is the ranked top-3 list so callers can offer a manual
	// fallback choice.
	Alternatives []RankedCandidate `json:"alternatives,omitempty"`
}
