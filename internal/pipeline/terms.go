package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
)

const termsSystemPrompt = `You mine UK job adverts for distinctive technical and brand terms that a generic clue extraction may have missed: machine brands and models, niche software, proprietary processes, certification schemes.

Return STRICT JSON:

{
  "machinery_terms": [string],
  "software_terms": [string],
  "search_keywords": [string]
}

machinery_terms and software_terms are terms literally present in the advert. search_keywords are the short search phrases most likely to surface the hiring company, most distinctive first. Return empty arrays when nothing qualifies.`

const termsUserPrompt = `JOB TITLE: %s

ALREADY EXTRACTED MACHINERY TERMS: %s
ALREADY EXTRACTED SOFTWARE TERMS: %s

DESCRIPTION (truncated):
%s`

// synthesizedTerms is the expected response shape for term synthesis.
type synthesizedTerms struct {
	MachineryTerms []string `json:"machinery_terms"`
	SoftwareTerms  []string `json:"software_terms"`
	SearchKeywords []string `json:"search_keywords"`
}

// SynthesizeTerms extends the bundle's machinery and software lists with
// additional distinguishing terms mined from the description prefix, and
// derives the top-K search keyword list. The merge is append-only; on any
// failure the bundle is left unchanged.
func SynthesizeTerms(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, idCfg config.IdentifyConfig, posting model.PostingRecord, clues *model.ClueBundle) model.TokenUsage {
	log := zap.L().With(zap.String("job_id", posting.JobID), zap.String("stage", "synthesize_terms"))

	resp, err := resilience.DoVal(ctx, retryCfg("anthropic", "synthesize_terms"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     aiCfg.HaikuModel,
			MaxTokens: 1024,
			System:    anthropic.BuildCachedSystemBlocks(termsSystemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(termsUserPrompt,
					posting.Title,
					joinOrNone(clues.MachineryClues),
					joinOrNone(clues.SoftwareClues),
					prefix(posting.Description, idCfg.DescriptionPrefixChars),
				)},
			},
		})
	})
	if err != nil {
		log.Warn("term synthesis failed, bundle unchanged", zap.Error(err))
		return model.TokenUsage{}
	}
	resp.Usage.LogCost(aiCfg.HaikuModel, "synthesize_terms")

	var terms synthesizedTerms
	if jsonErr := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &terms); jsonErr != nil {
		log.Warn("term synthesis returned malformed JSON, bundle unchanged")
		return usageFrom(resp)
	}

	clues.MergeTerms(terms.MachineryTerms, terms.SoftwareTerms)
	clues.SearchKeywords = topK(terms.SearchKeywords, idCfg.SearchKeywordLimit)

	log.Debug("terms synthesized",
		zap.Int("machinery", len(clues.MachineryClues)),
		zap.Int("software", len(clues.SoftwareClues)),
		zap.Int("keywords", len(clues.SearchKeywords)),
	)
	return usageFrom(resp)
}

// prefix bounds text to at most n bytes, cutting at a rune boundary.
func prefix(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	for n > 0 && text[n]&0xC0 == 0x80 {
		n--
	}
	return text[:n]
}

// topK returns the first k non-empty entries.
func topK(items []string, k int) []string {
	if k <= 0 {
		k = len(items)
	}
	out := make([]string, 0, k)
	for _, s := range items {
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == k {
			break
		}
	}
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	out := items[0]
	for _, s := range items[1:] {
		out += ", " + s
	}
	return out
}
