package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
	"github.com/talentsignal/employer-cli/pkg/jina"
	"github.com/talentsignal/employer-cli/pkg/perplexity"
)

const registeredLocationPrompt = `What is the registered office postcode and town of the UK company %q? Answer with the postcode and town only; say "unknown" if you cannot find it.`

// VerifyCandidates re-checks the top-ranked candidates with targeted
// verification queries and re-invokes the ranking contract with the gathered
// text appended. Per candidate, up to three queries run: a grounded
// registered-location lookup, a capability confirmation, and an exact
// title-plus-name search. Any individual query failure degrades to whatever
// text was gathered; verification never aborts the pipeline. The refreshed
// ranking may reorder or drop a previously top candidate.
func VerifyCandidates(ctx context.Context, ai anthropic.Client, search jina.Client, pplx perplexity.Client, limiter *rate.Limiter, aiCfg config.AnthropicConfig, idCfg config.IdentifyConfig, posting model.PostingRecord, clues *model.ClueBundle, hyp model.IndustryHypothesis, jobPostcode string, evidence *model.EvidenceSet, result *model.IdentificationResult) (*model.IdentificationResult, model.TokenUsage) {
	if len(result.Companies) == 0 {
		return result, model.TokenUsage{}
	}

	topN := idCfg.VerifyTopN
	if topN <= 0 {
		topN = 3
	}
	if topN > len(result.Companies) {
		topN = len(result.Companies)
	}

	var blocks []string
	for _, candidate := range result.Companies[:topN] {
		text := gatherVerification(ctx, search, pplx, limiter, idCfg, posting, clues, candidate)
		if text != "" {
			blocks = append(blocks, text)
		}
	}
	if len(blocks) == 0 {
		zap.L().Info("no verification evidence gathered, keeping original ranking",
			zap.String("job_id", posting.JobID),
			zap.String("stage", "verify_candidates"),
		)
		return result, model.TokenUsage{}
	}

	return RankCandidates(ctx, ai, aiCfg, posting, clues, hyp, jobPostcode, evidence, strings.Join(blocks, "\n\n"))
}

// gatherVerification runs the up-to-three verification queries for one
// candidate and renders their output as a labelled text block.
func gatherVerification(ctx context.Context, search jina.Client, pplx perplexity.Client, limiter *rate.Limiter, idCfg config.IdentifyConfig, posting model.PostingRecord, clues *model.ClueBundle, candidate model.CandidateOrganization) string {
	log := zap.L().With(
		zap.String("job_id", posting.JobID),
		zap.String("stage", "verify_candidates"),
		zap.String("company", candidate.CompanyName),
	)

	var b strings.Builder
	b.WriteString("CANDIDATE: ")
	b.WriteString(candidate.CompanyName)
	b.WriteString("\n")

	// Registered location, via the grounded lookup provider.
	if pplx != nil {
		callCtx, cancel := callContext(ctx, idCfg)
		answer, err := resilience.DoVal(callCtx, retryCfg("perplexity", "registered_location"), func(ctx context.Context) (string, error) {
			return pplx.Lookup(ctx, fmt.Sprintf(registeredLocationPrompt, candidate.CompanyName))
		})
		cancel()
		if err != nil {
			log.Warn("registered-location lookup failed, skipping", zap.Error(err))
		} else if answer != "" {
			b.WriteString("registered location: ")
			b.WriteString(strings.TrimSpace(answer))
			b.WriteString("\n")
		}
	}

	// Capability confirmation against the advert's strongest technical term.
	capability := candidate.SourceHypothesis
	if terms := clues.UniqueClues(); len(terms) > 0 {
		capability = terms[0]
	}
	if capability != "" {
		appendSearchBlock(ctx, search, limiter, idCfg, &b, log,
			quote(candidate.CompanyName)+" "+capability, "capability")
	}

	// Exact title-plus-name confirmation.
	appendSearchBlock(ctx, search, limiter, idCfg, &b, log,
		quote(candidate.CompanyName)+" "+quote(posting.Title), "title match")

	text := b.String()
	if strings.Count(text, "\n") <= 1 {
		// Nothing beyond the header was gathered.
		return ""
	}
	return text
}

func appendSearchBlock(ctx context.Context, search jina.Client, limiter *rate.Limiter, idCfg config.IdentifyConfig, b *strings.Builder, log *zap.Logger, query, kind string) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}

	callCtx, cancel := callContext(ctx, idCfg)
	defer cancel()

	resp, err := search.Search(callCtx, query, jina.WithMaxResults(2))
	if err != nil {
		log.Warn("verification query failed, skipping", zap.String("kind", kind), zap.Error(err))
		return
	}
	for _, r := range resp.Data {
		b.WriteString(kind)
		b.WriteString(": ")
		b.WriteString(r.Title)
		b.WriteString(" - ")
		b.WriteString(r.Snippet())
		b.WriteString("\n")
	}
}
