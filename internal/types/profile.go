// Package types defines the shared data model for the job application pipeline.
package types

// CandidateProfile is the structured form of an uploaded resume, as returned
// by the profile parser. The pipeline treats it as read-only once set.
type CandidateProfile struct {
	Name       string            `json:"name"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`
}

// ExperienceEntry is one role in the candidate's work history.
type ExperienceEntry struct {
	Title     string   `json:"title"`
	Company   string   `json:"company"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Bullets   []string `json:"bullets,omitempty"`
}

// EducationEntry is one degree or certification.
type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}
