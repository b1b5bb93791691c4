package discovery

import (
	"context"
	"log"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Service runs the discovery and verification cascade for one company.
type Service struct {
	provider Provider
}

// NewService creates a discovery service on top of a provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// FindRecruitingEmail locates the best deliverable (or best-effort) recruiting
// address for a company. Candidates are verified strictly in descending score
// order, one at a time:
//
//   - deliverable: accept immediately and stop
//   - risky: keep as fallback only if none kept yet, keep checking
//   - undeliverable: discard, continue
//   - verification call fails: accept the current candidate on its discovery
//     confidence alone, mark unknown, and stop rather than burn more quota
//
// "Not found" is a normal Result, never an error.
func (s *Service) FindRecruitingEmail(ctx context.Context, company, siteURL string) (*Result, error) {
	domain := DeriveDomain(company, siteURL)
	if domain == "" {
		log.Printf("[discovery] no plausible domain for %q, skipping search", company)
		return &Result{Found: false, Reason: ReasonNoDomain}, nil
	}

	candidates, err := s.provider.SearchDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{Found: false, Reason: ReasonNoAddresses}, nil
	}

	ranked := RankCandidates(candidates)
	log.Printf("[discovery] %s: %d addresses, verifying top %d", domain, len(candidates), len(ranked))

	var fallback *RankedCandidate

	for i := range ranked {
		candidate := ranked[i]

		verdict, err := s.provider.VerifyEmail(ctx, candidate.Email)
		if err != nil {
			// Verification outage: accept on discovery confidence alone.
			log.Printf("[discovery] verification failed for %s, accepting unverified: %v", candidate.Email, err)
			return &Result{
				Found:        true,
				Email:        candidate.Email,
				Confidence:   candidate.Confidence,
				Verified:     false,
				VerifyResult: types.VerifyUnknown,
				Alternatives: ranked,
			}, nil
		}

		switch verdict {
		case types.VerifyDeliverable:
			return &Result{
				Found:        true,
				Email:        candidate.Email,
				Confidence:   candidate.Confidence,
				Verified:     true,
				VerifyResult: types.VerifyDeliverable,
				Alternatives: ranked,
			}, nil
		case types.VerifyRisky:
			if fallback == nil {
				fallback = &ranked[i]
			}
		case types.VerifyUndeliverable, types.VerifyUnknown:
			// Discard and keep going.
		}
	}

	if fallback != nil {
		return &Result{
			Found:        true,
			Email:        fallback.Email,
			Confidence:   fallback.Confidence,
			Verified:     false,
			VerifyResult: types.VerifyRisky,
			Alternatives: ranked,
		}, nil
	}

	return &Result{Found: false, Reason: ReasonAllUndeliverable, Alternatives: ranked}, nil
}
