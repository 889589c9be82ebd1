package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
)

const paramsSystemPrompt = `You derive web-search vocabulary for finding UK companies in a given industry.

Return STRICT JSON:

{
  "industry": "the industry label you were given",
  "diagnosing_terms": ["3-5 search terms distinctive enough to surface companies genuinely in this industry"],
  "evidence_keywords": ["5-8 lowercase terms whose presence in a search snippet proves an industry match"],
  "exclusion_terms": ["0-5 terms to exclude from queries because they attract the wrong results"]
}

Diagnosing terms should favour concrete capability phrases ("5-axis cnc milling") over generic labels. Evidence keywords must be single lowercase words or short lowercase phrases.`

const paramsUserPrompt = `INDUSTRY: %s

MACHINERY TERMS FROM THE ADVERT: %s
SOFTWARE TERMS FROM THE ADVERT: %s

DESCRIPTION (truncated):
%s`

// GenerateSearchParams derives the per-hypothesis search vocabulary. Runs
// once per industry label. On failure it falls back to the raw machinery
// terms so the pipeline can always issue at least one query.
func GenerateSearchParams(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, idCfg config.IdentifyConfig, label string, posting model.PostingRecord, clues *model.ClueBundle) (model.SearchParameterSet, model.TokenUsage) {
	log := zap.L().With(
		zap.String("job_id", posting.JobID),
		zap.String("stage", "generate_search_params"),
		zap.String("industry", label),
	)

	resp, err := resilience.DoVal(ctx, retryCfg("anthropic", "generate_search_params"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     aiCfg.HaikuModel,
			MaxTokens: 1024,
			System:    anthropic.BuildCachedSystemBlocks(paramsSystemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(paramsUserPrompt,
					label,
					joinOrNone(clues.MachineryClues),
					joinOrNone(clues.SoftwareClues),
					prefix(posting.Description, idCfg.DescriptionPrefixChars),
				)},
			},
		})
	})
	if err != nil {
		log.Warn("search param generation failed, using machinery fallback", zap.Error(err))
		return fallbackParams(label, clues), model.TokenUsage{}
	}
	resp.Usage.LogCost(aiCfg.HaikuModel, "generate_search_params")
	usage := usageFrom(resp)

	var params model.SearchParameterSet
	if jsonErr := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &params); jsonErr != nil {
		log.Warn("search param generation returned malformed JSON, using machinery fallback")
		return fallbackParams(label, clues), usage
	}

	params.Industry = label
	params.DiagnosingTerms = topK(params.DiagnosingTerms, 5)
	params.EvidenceKeywords = lowerAll(topK(params.EvidenceKeywords, 8))
	params.ExclusionTerms = topK(params.ExclusionTerms, 5)
	if len(params.DiagnosingTerms) == 0 {
		return fallbackParams(label, clues), usage
	}
	return params, usage
}

// fallbackParams builds a usable parameter set from the advert's own terms:
// machinery terms diagnose, the lowercased label plus machinery terms prove.
func fallbackParams(label string, clues *model.ClueBundle) model.SearchParameterSet {
	diagnosing := topK(clues.MachineryClues, 5)
	if len(diagnosing) == 0 {
		diagnosing = []string{label}
	}

	keywords := []string{strings.ToLower(label)}
	keywords = append(keywords, lowerAll(topK(clues.MachineryClues, 7))...)

	return model.SearchParameterSet{
		Industry:         label,
		DiagnosingTerms:  diagnosing,
		EvidenceKeywords: topK(keywords, 8),
	}
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}
