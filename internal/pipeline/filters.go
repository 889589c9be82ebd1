package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/namecheck"
	"github.com/talentsignal/employer-cli/internal/postcode"
)

// ApplyHardFilters removes candidates that violate a hard constraint,
// regardless of score. The three filters are independent, idempotent set
// intersections, so their order does not affect the outcome. The recruiter
// exclusion is re-enforced structurally here as well.
func ApplyHardFilters(result *model.IdentificationResult, posting model.PostingRecord, clues *model.ClueBundle, jobPostcode string, names namecheck.Checker, idCfg config.IdentifyConfig) *model.IdentificationResult {
	before := len(result.Companies)

	candidates := filterRecruiter(result.Companies, posting.RecruiterName)
	candidates = filterPersonNames(candidates, names)
	candidates = filterOrganizationType(candidates, result.Hypothesis.Primary, idCfg.ManufacturingTriggers)
	candidates = filterGeography(candidates, jobPostcode, primaryTown(clues, posting.LocationText))

	result.Companies = candidates
	if dropped := before - len(candidates); dropped > 0 {
		zap.L().Info("hard filters dropped candidates",
			zap.String("job_id", posting.JobID),
			zap.String("stage", "hard_filters"),
			zap.Int("dropped", dropped),
			zap.Int("remaining", len(candidates)),
		)
	}
	return result
}

// filterRecruiter drops any candidate whose name equals the recruiter's,
// case-insensitively.
func filterRecruiter(candidates []model.CandidateOrganization, recruiterName string) []model.CandidateOrganization {
	recruiter := strings.ToLower(strings.TrimSpace(recruiterName))
	if recruiter == "" {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if strings.ToLower(strings.TrimSpace(c.CompanyName)) == recruiter {
			continue
		}
		out = append(out, c)
	}
	return out
}

// filterPersonNames drops candidates whose name matches a human-name
// pattern. Search snippets regularly surface named recruiter contacts, and a
// person is never a hiring organization.
func filterPersonNames(candidates []model.CandidateOrganization, names namecheck.Checker) []model.CandidateOrganization {
	out := candidates[:0]
	for _, c := range candidates {
		if names.IsLikelyPerson(c.CompanyName) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// filterOrganizationType is active only when the primary industry is
// manufacturing-like: it drops candidates flagged as neither a manufacturer
// nor a maker of physical products.
func filterOrganizationType(candidates []model.CandidateOrganization, primary string, triggers []string) []model.CandidateOrganization {
	if !isManufacturingLike(primary, triggers) {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if !c.IsManufacturer && !c.MakesPhysicalProducts {
			continue
		}
		out = append(out, c)
	}
	return out
}

// filterGeography drops candidates whose outward postcode differs from the
// posting's when both are known. When either postcode is missing it falls
// back to requiring the posting's primary town inside the candidate's
// verified location text; with no town known either, the candidate passes.
func filterGeography(candidates []model.CandidateOrganization, jobPostcode, town string) []model.CandidateOrganization {
	jobOutward := postcode.Outward(jobPostcode)
	townLower := strings.ToLower(strings.TrimSpace(town))

	out := candidates[:0]
	for _, c := range candidates {
		candOutward := postcode.Outward(c.CompanyPostcode)

		if jobOutward != "" && candOutward != "" {
			if candOutward != jobOutward {
				continue
			}
			out = append(out, c)
			continue
		}

		if townLower != "" && !strings.Contains(strings.ToLower(c.LocationVerified), townLower) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// primaryTown resolves the posting's town: the extracted primary town, or the
// first comma-separated token of the raw location text.
func primaryTown(clues *model.ClueBundle, locationText string) string {
	if clues.LocationClues.PrimaryTown != "" {
		return clues.LocationClues.PrimaryTown
	}
	town, _, _ := strings.Cut(locationText, ",")
	return strings.TrimSpace(town)
}
