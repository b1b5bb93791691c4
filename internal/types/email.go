package types

// EmailSource identifies where a recruiting address came from.
type EmailSource string

// Email source values.
const (
	EmailSourceDiscovery EmailSource = "discovery"
	EmailSourceEstimate  EmailSource = "llm_estimate"
	EmailSourceNone      EmailSource = "none"
)

// VerifyResult classifies the deliverability of a discovered address.
type VerifyResult string

// Verification outcomes.
const (
	VerifyDeliverable   VerifyResult = "deliverable"
	VerifyRisky         VerifyResult = "risky"
	VerifyUndeliverable VerifyResult = "undeliverable"
	VerifyUnknown       VerifyResult = "unknown"
)

// EmailDraft is a proposed outreach email for one retained job. Subject, Body
// and HREmail may be edited by the user during the email review gate; all
// other fields are immutable after creation.
type EmailDraft struct {
	JobID             string       `json:"job_id"`
	Company           string       `json:"company"`
	JobTitle          string       `json:"job_title"`
	HREmail           string       `json:"hr_email,omitempty"`
	EmailSource       EmailSource  `json:"email_source"`
	EmailVerified     bool         `json:"email_verified"`
	EmailVerifyResult VerifyResult `json:"email_verify_result,omitempty"`
	Subject           string       `json:"subject"`
	Body              string       `json:"body"`
	Error             string       `json:"error,omitempty"`
}

// SendResult records the outcome of attempting to send one approved draft.
type SendResult struct {
	JobID   string `json:"job_id"`
	Company string `json:"company"`
	HREmail string `json:"hr_email"`
	Sent    bool   `json:"sent"`
	Error   string `json:"error,omitempty"`
}
