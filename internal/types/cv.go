package types

// TailoredCV is a structured resume tailored to a single job posting,
// produced by the tailoring worker.
type TailoredCV struct {
	Name       string            `json:"name"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Summary    string            `json:"summary"`
	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education,omitempty"`
}

// ATSScore holds the applicant-tracking-system compatibility scores for a
// tailored resume, on a 0-100 scale.
type ATSScore struct {
	Overall  int `json:"overall"`
	Format   int `json:"format"`
	Keywords int `json:"keywords"`
	Content  int `json:"content"`
}

// CVResult is the outcome of tailoring one resume for one JobCandidate.
// Read-only after creation except for DocumentPath/HasDocument, which the
// batch renderer sets.
type CVResult struct {
	JobID           string      `json:"job_id"`
	CV              *TailoredCV `json:"cv,omitempty"`
	ATSScore        ATSScore    `json:"ats_score"`
	MatchedKeywords []string    `json:"matched_keywords,omitempty"`
	MissingKeywords []string    `json:"missing_keywords,omitempty"`
	Suggestions     []string    `json:"suggestions,omitempty"`
	Error           string      `json:"error,omitempty"`
	DocumentPath    string      `json:"document_path,omitempty"`
	HasDocument     bool        `json:"has_document"`
}
