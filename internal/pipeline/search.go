package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/pkg/jina"
)

// searchQuery is a structured query: terms, a geography token, and exclusion
// terms, rendered to a provider string in one place.
type searchQuery struct {
	terms      []string
	geography  string
	exclusions []string
}

// render produces the provider query string. Exclusions use the -term syntax.
func (q searchQuery) render() string {
	var b strings.Builder
	b.WriteString(strings.Join(q.terms, " "))
	if q.geography != "" {
		b.WriteString(" ")
		b.WriteString(q.geography)
	}
	for _, ex := range q.exclusions {
		b.WriteString(" -")
		b.WriteString(ex)
	}
	return strings.TrimSpace(b.String())
}

// geographyToken builds the geographic scope for queries. Normally it is the
// location plus postcode; the multi-site flag swaps the postcode for the
// broader region, loosening the radius for UK-wide roles.
func geographyToken(clues *model.ClueBundle, locationText, jobPostcode string) string {
	town := clues.LocationClues.PrimaryTown
	if town == "" {
		town = locationText
	}

	if clues.LocationClues.MultiSite && clues.LocationClues.Region != "" {
		return strings.TrimSpace(town + " " + clues.LocationClues.Region)
	}
	return strings.TrimSpace(town + " " + jobPostcode)
}

func quote(s string) string {
	return `"` + s + `"`
}

// buildQueries produces the 3-4 bounded queries for one hypothesis:
// top-2 diagnosing terms, the quoted label, first+last diagnosing term, and
// a quoted unique clue paired with the quoted label when unique clues exist.
// Duplicate renders are dropped.
func buildQueries(label string, params model.SearchParameterSet, uniqueClues []string, geo string) []searchQuery {
	var queries []searchQuery
	diag := params.DiagnosingTerms

	if len(diag) >= 2 {
		queries = append(queries, searchQuery{terms: diag[:2], geography: geo, exclusions: params.ExclusionTerms})
	} else if len(diag) == 1 {
		queries = append(queries, searchQuery{terms: diag, geography: geo, exclusions: params.ExclusionTerms})
	}

	queries = append(queries, searchQuery{terms: []string{quote(label)}, geography: geo, exclusions: params.ExclusionTerms})

	if len(diag) >= 3 {
		queries = append(queries, searchQuery{terms: []string{diag[0], diag[len(diag)-1]}, geography: geo, exclusions: params.ExclusionTerms})
	}

	if len(uniqueClues) > 0 {
		queries = append(queries, searchQuery{terms: []string{quote(uniqueClues[0]), quote(label)}, geography: geo})
	}

	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		r := q.render()
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, q)
	}
	return out
}

// ExecuteSearches issues every hypothesis's queries against the search
// provider and merges the hits in query order. Queries are independent and
// run concurrently under the shared rate limiter; a failing query is logged
// and skipped so partial results still flow downstream.
func ExecuteSearches(ctx context.Context, search jina.Client, limiter *rate.Limiter, idCfg config.IdentifyConfig, hyp model.IndustryHypothesis, params map[string]model.SearchParameterSet, clues *model.ClueBundle, geo string) []model.SearchHit {
	type labeledQuery struct {
		label string
		query searchQuery
	}

	var queries []labeledQuery
	uniqueClues := clues.UniqueClues()
	for _, label := range hyp.Labels() {
		for _, q := range buildQueries(label, params[label], uniqueClues, geo) {
			queries = append(queries, labeledQuery{label: label, query: q})
		}
	}

	results := make([][]model.SearchHit, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, lq := range queries {
		g.Go(func() error {
			rendered := lq.query.render()
			log := zap.L().With(zap.String("stage", "execute_searches"), zap.String("query", rendered))

			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return nil
				}
			}

			callCtx, cancel := callContext(gctx, idCfg)
			defer cancel()

			resp, err := search.Search(callCtx, rendered, jina.WithMaxResults(idCfg.MaxResultsPerQuery))
			if err != nil {
				log.Warn("search query failed, skipping", zap.Error(err))
				return nil
			}

			hits := make([]model.SearchHit, 0, len(resp.Data))
			for _, r := range resp.Data {
				hits = append(hits, model.SearchHit{
					Title:      r.Title,
					URL:        r.URL,
					Snippet:    r.Snippet(),
					Hypothesis: lq.label,
					Query:      rendered,
				})
			}
			results[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	var merged []model.SearchHit
	for _, hits := range results {
		merged = append(merged, hits...)
	}

	zap.L().Info("search complete",
		zap.String("stage", "execute_searches"),
		zap.Int("queries", len(queries)),
		zap.Int("hits", len(merged)),
	)
	return merged
}

// callContext applies the per-external-call timeout from config.
func callContext(ctx context.Context, idCfg config.IdentifyConfig) (context.Context, context.CancelFunc) {
	if idCfg.CallTimeoutSecs <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(idCfg.CallTimeoutSecs)*time.Second)
}
