package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/namecheck"
)

// FilterEvidence reduces raw search hits to the deduplicated, keyword-
// justified, person-redacted evidence set surfaced to the ranker.
//
// Dedup key is the URL, first occurrence wins. A hit is retained when its
// snippet contains a unique clue term (unconditional pass) or an evidence
// keyword of its originating hypothesis. Manufacturing-like hypotheses
// additionally require a physical-production term in keyword-matched hits,
// which keeps software and consulting results out of manufacturing evidence.
func FilterEvidence(hits []model.SearchHit, clues *model.ClueBundle, params map[string]model.SearchParameterSet, names namecheck.Checker, idCfg config.IdentifyConfig) *model.EvidenceSet {
	set := &model.EvidenceSet{}
	seen := make(map[string]bool, len(hits))

	uniqueClues := lowerAll(clues.UniqueClues())

	for _, hit := range hits {
		if hit.URL != "" {
			if seen[hit.URL] {
				continue
			}
			seen[hit.URL] = true
		}

		if !retainHit(hit, uniqueClues, params[hit.Hypothesis].EvidenceKeywords, idCfg) {
			set.Discarded++
			continue
		}

		set.Items = append(set.Items, model.EvidenceItem{
			Title:      names.Redact(hit.Title),
			URL:        hit.URL,
			Snippet:    names.Redact(hit.Snippet),
			Hypothesis: hit.Hypothesis,
		})
		set.Retained++
	}

	zap.L().Info("evidence filtered",
		zap.String("stage", "filter_evidence"),
		zap.Int("retained", set.Retained),
		zap.Int("discarded", set.Discarded),
	)
	return set
}

func retainHit(hit model.SearchHit, uniqueClues, keywords []string, idCfg config.IdentifyConfig) bool {
	text := strings.ToLower(hit.Title + " " + hit.Snippet)

	// A unique clue match is strong evidence on its own.
	for _, clue := range uniqueClues {
		if clue != "" && strings.Contains(text, clue) {
			return true
		}
	}

	matched := false
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if isManufacturingLike(hit.Hypothesis, idCfg.ManufacturingTriggers) {
		return containsAny(text, idCfg.PhysicalTerms)
	}
	return true
}

// isManufacturingLike reports whether the industry label lexically indicates
// production work, per the configured trigger set.
func isManufacturingLike(label string, triggers []string) bool {
	return containsAny(strings.ToLower(label), triggers)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
