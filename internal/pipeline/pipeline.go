// Package pipeline implements the ten-stage employer identification
// pipeline: clue extraction, search-term synthesis, industry hypothesis
// generation, per-hypothesis search-parameter generation, targeted search,
// evidence filtering, candidate ranking, verification re-ranking, hard
// filtering and result aggregation. Stages are plain functions taking their
// dependencies explicitly; the Pipeline struct wires them together for one
// posting at a time.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/namecheck"
	"github.com/talentsignal/employer-cli/internal/postcode"
	"github.com/talentsignal/employer-cli/internal/store"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
	"github.com/talentsignal/employer-cli/pkg/jina"
	"github.com/talentsignal/employer-cli/pkg/perplexity"
)

// Pipeline holds the collaborators shared across postings. It keeps no
// per-posting state, so concurrent Identify calls for distinct postings are
// safe.
type Pipeline struct {
	cfg        *config.Config
	store      store.Store
	search     jina.Client
	perplexity perplexity.Client
	anthropic  anthropic.Client
	names      namecheck.Checker
	limiter    *rate.Limiter
}

// New creates a Pipeline. The store may be nil, in which case no run
// bookkeeping is recorded.
func New(
	cfg *config.Config,
	st store.Store,
	searchClient jina.Client,
	pplxClient perplexity.Client,
	aiClient anthropic.Client,
	names namecheck.Checker,
) *Pipeline {
	var limiter *rate.Limiter
	if cfg.Identify.SearchQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Identify.SearchQPS), 1)
	}
	return &Pipeline{
		cfg:        cfg,
		store:      st,
		search:     searchClient,
		perplexity: pplxClient,
		anthropic:  aiClient,
		names:      names,
		limiter:    limiter,
	}
}

// Outcome is everything the caller needs from one posting's run: the final
// result, the clue bundle for the flattened record, and token accounting.
type Outcome struct {
	RunID  string
	Clues  *model.ClueBundle
	Result *model.IdentificationResult
	Usage  model.TokenUsage
}

// Identify runs the full pipeline for one posting. The only fatal path is
// hypothesis generation: without a hypothesis no search can be targeted.
// Every other stage degrades to typed defaults, so the worst non-fatal
// outcome is an empty candidate list with an error note in the summary.
func (p *Pipeline) Identify(ctx context.Context, posting model.PostingRecord) (*Outcome, error) {
	log := zap.L().With(zap.String("job_id", posting.JobID), zap.String("title", posting.Title))
	log.Info("pipeline: starting identification")

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, posting)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
	}
	setStatus := func(status model.RunStatus) {
		if p.store == nil {
			return
		}
		if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: failed to update run status", zap.Error(err))
		}
	}

	var usage model.TokenUsage
	idCfg := p.cfg.Identify
	aiCfg := p.cfg.Anthropic

	// Stage 1-2: clue extraction and term synthesis, both non-fatal.
	setStatus(model.RunStatusExtracting)
	callCtx, cancel := callContext(ctx, idCfg)
	clues, u := ExtractClues(callCtx, p.anthropic, aiCfg, posting)
	cancel()
	usage.Add(u)

	callCtx, cancel = callContext(ctx, idCfg)
	usage.Add(SynthesizeTerms(callCtx, p.anthropic, aiCfg, idCfg, posting, clues))
	cancel()

	// Stage 3: hypothesis generation, the one posting-fatal stage.
	callCtx, cancel = callContext(ctx, idCfg)
	hyp, u, err := GenerateHypothesis(callCtx, p.anthropic, aiCfg, clues)
	cancel()
	usage.Add(u)
	if err != nil {
		p.failRun(ctx, runID, log, usage, err)
		return nil, eris.Wrapf(err, "pipeline: posting %s", posting.JobID)
	}

	jobPostcode := clues.LocationClues.Postcode
	if jobPostcode == "" {
		jobPostcode = postcode.Extract(posting.LocationText)
	}

	// Stage 4-5: per-hypothesis search vocabulary, then targeted search.
	setStatus(model.RunStatusSearching)
	params := make(map[string]model.SearchParameterSet, 3)
	for _, label := range hyp.Labels() {
		callCtx, cancel = callContext(ctx, idCfg)
		set, u := GenerateSearchParams(callCtx, p.anthropic, aiCfg, idCfg, label, posting, clues)
		cancel()
		usage.Add(u)
		params[label] = set
	}

	geo := geographyToken(clues, posting.LocationText, jobPostcode)
	hits := ExecuteSearches(ctx, p.search, p.limiter, idCfg, hyp, params, clues, geo)

	// Stage 6: evidence filtering.
	evidence := FilterEvidence(hits, clues, params, p.names, idCfg)

	// Stage 7: ranking.
	setStatus(model.RunStatusRanking)
	callCtx, cancel = callContext(ctx, idCfg)
	result, u := RankCandidates(callCtx, p.anthropic, aiCfg, posting, clues, hyp, jobPostcode, evidence, "")
	cancel()
	usage.Add(u)

	// Stage 8: verification re-rank of the top candidates.
	setStatus(model.RunStatusVerifying)
	result, u = VerifyCandidates(ctx, p.anthropic, p.search, p.perplexity, p.limiter, aiCfg, idCfg, posting, clues, hyp, jobPostcode, evidence, result)
	usage.Add(u)

	// Stage 9-10: hard filters, then the final aggregate.
	result = ApplyHardFilters(result, posting, clues, jobPostcode, p.names, idCfg)
	result = BuildResult(hyp, result, clues, posting)

	if p.store != nil {
		runResult := runResultFrom(result, usage)
		if err := p.store.UpdateRunResult(ctx, runID, runResult); err != nil {
			log.Warn("pipeline: failed to record run result", zap.Error(err))
		}
	}

	log.Info("pipeline: identification complete",
		zap.Int("candidates", len(result.Companies)),
		zap.String("top_company", topName(result)),
		zap.Int("total_tokens", usage.InputTokens+usage.OutputTokens),
	)
	return &Outcome{
		RunID:  runID,
		Clues:  clues,
		Result: result,
		Usage:  usage,
	}, nil
}

func (p *Pipeline) failRun(ctx context.Context, runID string, log *zap.Logger, usage model.TokenUsage, err error) {
	if p.store == nil {
		return
	}
	failErr := p.store.FailRun(ctx, runID, &model.RunResult{
		TotalTokens: usage.InputTokens + usage.OutputTokens,
		Error:       err.Error(),
	})
	if failErr != nil {
		log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
	}
}

func runResultFrom(result *model.IdentificationResult, usage model.TokenUsage) *model.RunResult {
	rr := &model.RunResult{
		Candidates:  len(result.Companies),
		TotalTokens: usage.InputTokens + usage.OutputTokens,
	}
	if top := result.Top(); top != nil {
		rr.TopCompany = top.CompanyName
		rr.TopConfidence = top.Confidence
		rr.TopScore = top.TotalScore
	}
	return rr
}

func topName(result *model.IdentificationResult) string {
	if top := result.Top(); top != nil {
		return top.CompanyName
	}
	return ""
}
