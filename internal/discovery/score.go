package discovery

import (
	"sort"
	"strings"
)

// Recruiting-relevance score weights. The provider confidence (0-100) is the
// base; keyword matches on department, title and local-part alias stack on
// top so a recruiting inbox outranks a higher-confidence engineer.
const (
	departmentBonus = 60
	titleBonus      = 40
	aliasBonus      = 30
)

// maxVerifyCandidates caps how many ranked candidates enter the verification
// cascade, bounding paid verification calls per company.
const maxVerifyCandidates = 3

var departmentKeywords = []string{
	"human resources", "hr", "talent", "recruiting", "people", "staffing",
}

var titleKeywords = []string{
	"hr", "recruiter", "talent", "hiring", "people", "workforce",
	"human resources", "acquisition",
}

var recruitingAliases = []string{
	"hr@", "careers@", "recruiting@", "talent@", "jobs@", "people@",
}

// ScoreCandidate computes the deterministic recruiting-relevance score for
// one discovered address.
func ScoreCandidate(c Candidate) int {
	score := c.Confidence

	if matchesAny(c.Department, departmentKeywords) {
		score += departmentBonus
	}
	if matchesAny(c.Position, titleKeywords) {
		score += titleBonus
	}
	if hasRecruitingAlias(c.Email) {
		score += aliasBonus
	}

	return score
}

// RankCandidates scores and sorts candidates descending, returning at most
// maxVerifyCandidates of them.
func RankCandidates(candidates []Candidate) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, RankedCandidate{Candidate: c, Score: ScoreCandidate(c)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > maxVerifyCandidates {
		ranked = ranked[:maxVerifyCandidates]
	}
	return ranked
}

func matchesAny(field string, keywords []string) bool {
	f := strings.ToLower(strings.TrimSpace(field))
	if f == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(f, kw) {
			return true
		}
	}
	return false
}

func hasRecruitingAlias(email string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	for _, alias := range recruitingAliases {
		if strings.HasPrefix(e, alias) {
			return true
		}
	}
	return false
}
