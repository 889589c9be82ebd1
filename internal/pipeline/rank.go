package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
)

const rankSystemPrompt = `You are an expert in UK industrial geography, manufacturing and recruitment. You identify the hiring company behind a recruiter job advert from supplied search evidence, using a structured, transparent process.

RULES:
- Extract organization names ONLY from the supplied evidence. Never invent a company.
- The recruiter is never the hiring company and must never appear as a candidate.
- Classify every candidate: is_manufacturer, makes_physical_products.
- Score each candidate with this rubric, each component 0-10:
  geography: exact postcode match 10, same outward code 8, adjacent outward code 6, same industrial cluster 4, otherwise 0
  sector: right industry and manufacturing type
  multi_site: matches any multi-site hints
  machinery: uses the machinery or software mentioned in the advert
  narrative: matches organisational narrative (family-run, turnaround, growth)
  salary: salary is realistic for this company size and type
  unique_clue: evidence matches a unique differentiator
- Add industry_bonus of 10 when the candidate's originating hypothesis is the PRIMARY industry, else 0.
- total_score is the sum of all components. confidence is total_score divided by 70, rounded to two decimals.
- reasoning MUST START with: "Company postcode: [postcode] - [matches / does not match] job postcode [job postcode]. Located in [town]." Then explain the other matches.
- Better to return one good match than five wrong locations. Candidates with geography 0 should be excluded.

Return STRICT JSON:

{
  "industrial_cluster": {
    "location": "specific town or area from the clues",
    "main_sectors": ["sector 1", "sector 2", "sector 3"]
  },
  "potential_companies": [
    {
      "company_name": "Specific Company Name Ltd",
      "company_postcode": "LE8 6LP",
      "postcode_matches_job": true,
      "location_verified": "town where the company is based",
      "confidence": 0.84,
      "total_score": 59,
      "score_breakdown": {
        "geography": 8,
        "sector": 9,
        "multi_site": 8,
        "machinery": 9,
        "narrative": 8,
        "salary": 7,
        "unique_clue": 0,
        "industry_bonus": 10
      },
      "is_manufacturer": true,
      "makes_physical_products": true,
      "source_hypothesis": "the hypothesis label whose evidence named this company",
      "source_search_result": "url of the supporting evidence",
      "reasoning": "Company postcode: ... then the explanation"
    }
  ],
  "analysis_summary": "overall process summary"
}

Return 0-5 companies ranked by total_score, highest first.`

const rankUserPrompt = `JOB TITLE: %s
LOCATION: %s
JOB POSTCODE: %s
RECRUITER (NEVER A CANDIDATE): %s

PRIMARY INDUSTRY HYPOTHESIS: %s
ALTERNATE HYPOTHESES: %s

EXTRACTED CLUES:
%s

SEARCH EVIDENCE (the only permitted source of company names):
%s%s`

// rankResponse is the expected ranking schema.
type rankResponse struct {
	Cluster         model.IndustrialCluster       `json:"industrial_cluster"`
	Companies       []model.CandidateOrganization `json:"potential_companies"`
	AnalysisSummary string                        `json:"analysis_summary"`
}

// RankCandidates performs the single classification call that extracts and
// scores candidate organizations from filtered evidence. Ranking failure is
// never fatal: it degrades to an empty candidate list carrying the error in
// the analysis summary. extraEvidence, when non-empty, is verification text
// appended to the evidence block.
func RankCandidates(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, posting model.PostingRecord, clues *model.ClueBundle, hyp model.IndustryHypothesis, jobPostcode string, evidence *model.EvidenceSet, extraEvidence string) (*model.IdentificationResult, model.TokenUsage) {
	log := zap.L().With(zap.String("job_id", posting.JobID), zap.String("stage", "rank_candidates"))

	if evidence.IsEmpty() && extraEvidence == "" {
		log.Info("no evidence gathered, returning empty candidate list")
		return &model.IdentificationResult{
			Hypothesis:      hyp,
			AnalysisSummary: "No search evidence was gathered for any hypothesis; no candidates can be proposed.",
		}, model.TokenUsage{}
	}

	cluesJSON, err := json.Marshal(clues)
	if err != nil {
		cluesJSON = []byte("{}")
	}

	extra := ""
	if extraEvidence != "" {
		extra = "\n\nVERIFICATION EVIDENCE:\n" + extraEvidence
	}

	resp, err := resilience.DoVal(ctx, retryCfg("anthropic", "rank_candidates"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     aiCfg.SonnetModel,
			MaxTokens: 4096,
			System:    anthropic.BuildCachedSystemBlocks(rankSystemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(rankUserPrompt,
					posting.Title,
					posting.LocationText,
					jobPostcode,
					posting.RecruiterName,
					hyp.Primary,
					strings.Join(hyp.Alternates, "; "),
					string(cluesJSON),
					evidence.Text(),
					extra,
				)},
			},
		})
	})
	if err != nil {
		log.Warn("ranking failed, returning empty candidate list", zap.Error(err))
		return &model.IdentificationResult{
			Hypothesis:      hyp,
			AnalysisSummary: "Candidate ranking failed: " + err.Error(),
		}, model.TokenUsage{}
	}
	resp.Usage.LogCost(aiCfg.SonnetModel, "rank_candidates")
	usage := usageFrom(resp)

	var ranked rankResponse
	if jsonErr := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &ranked); jsonErr != nil {
		log.Warn("ranking returned malformed JSON, returning empty candidate list")
		return &model.IdentificationResult{
			Hypothesis:      hyp,
			AnalysisSummary: "Candidate ranking failed: malformed ranking response",
		}, usage
	}

	result := &model.IdentificationResult{
		Hypothesis:      hyp,
		Cluster:         ranked.Cluster,
		Companies:       normalizeCandidates(ranked.Companies, posting.RecruiterName),
		AnalysisSummary: ranked.AnalysisSummary,
	}

	for i, c := range result.Companies {
		log.Info("candidate ranked",
			zap.Int("rank", i+1),
			zap.String("company", c.CompanyName),
			zap.String("postcode", c.CompanyPostcode),
			zap.Int("score", c.TotalScore),
			zap.Float64("confidence", c.Confidence),
		)
	}
	return result, usage
}

// normalizeCandidates enforces the structural parts of the ranking contract:
// the recruiter is dropped, totals are recomputed from the breakdown,
// confidence is derived from the total, and the list is sorted by score and
// capped at five entries.
func normalizeCandidates(candidates []model.CandidateOrganization, recruiterName string) []model.CandidateOrganization {
	recruiter := strings.ToLower(strings.TrimSpace(recruiterName))

	out := make([]model.CandidateOrganization, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.CompanyName)
		if name == "" || strings.ToLower(name) == recruiter {
			continue
		}
		c.CompanyName = name
		if total := c.ScoreBreakdown.Total(); total > 0 {
			c.TotalScore = total
		}
		c.Confidence = confidenceFromScore(c.TotalScore)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalScore > out[j].TotalScore
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// confidenceFromScore maps a rubric total to confidence, monotone in the
// score and clamped to [0, 1].
func confidenceFromScore(score int) float64 {
	c := float64(score) / float64(model.MaxTotalScore)
	c = math.Round(c*100) / 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
