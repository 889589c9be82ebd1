package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/config"
	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/resilience"
	"github.com/talentsignal/employer-cli/pkg/anthropic"
)

const hypothesisSystemPrompt = `You infer the industry of the hiring company behind a UK recruiter job advert from extracted clues.

First decide what the organization primarily does, using primary-duty phrasing as the strongest signal: makes a physical product, installs or maintains equipment, designs, builds software, or provides professional services.

Then return STRICT JSON:

{
  "primary": "most likely industry label",
  "alternates": ["second most likely", "third most likely"]
}

Labels are short lowercase industry descriptions ("cnc precision machining", "commercial hvac installation"). Alternates must be plausible and distinct from the primary.`

const hypothesisUserPrompt = `EXTRACTED CLUES:
%s

SUMMARY: %s

What industry is the hiring company most likely in?`

// GenerateHypothesis proposes one primary and exactly two alternate industry
// labels. Unlike the other stages this one is fatal on failure: without a
// hypothesis no search can be targeted, so the error propagates to the
// posting level.
//
// The classification output is untrusted where it contradicts extracted
// evidence: a manufacturing-type hint overrides the primary outright, and a
// primary sharing no text with any explicit sector is replaced by the first
// explicit sector.
func GenerateHypothesis(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, clues *model.ClueBundle) (model.IndustryHypothesis, model.TokenUsage, error) {
	cluesJSON, err := json.Marshal(clues)
	if err != nil {
		return model.IndustryHypothesis{}, model.TokenUsage{}, eris.Wrap(err, "pipeline: marshal clues")
	}

	resp, err := resilience.DoVal(ctx, retryCfg("anthropic", "generate_hypothesis"), func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     aiCfg.HaikuModel,
			MaxTokens: 512,
			System:    anthropic.BuildCachedSystemBlocks(hypothesisSystemPrompt),
			Messages: []anthropic.Message{
				{Role: "user", Content: fmt.Sprintf(hypothesisUserPrompt, string(cluesJSON), clues.SummaryNarrative)},
			},
		})
	})
	if err != nil {
		return model.IndustryHypothesis{}, model.TokenUsage{}, eris.Wrap(err, "pipeline: generate hypothesis")
	}
	resp.Usage.LogCost(aiCfg.HaikuModel, "generate_hypothesis")
	usage := usageFrom(resp)

	var hyp model.IndustryHypothesis
	if jsonErr := json.Unmarshal([]byte(cleanJSON(extractText(resp))), &hyp); jsonErr != nil {
		return model.IndustryHypothesis{}, usage, eris.Wrap(jsonErr, "pipeline: parse hypothesis")
	}
	if strings.TrimSpace(hyp.Primary) == "" {
		return model.IndustryHypothesis{}, usage, eris.New("pipeline: hypothesis has no primary label")
	}

	hyp.Primary = applyClueOverrides(hyp.Primary, clues)
	hyp.Alternates = padAlternates(hyp.Primary, hyp.Alternates)

	zap.L().Info("industry hypothesis",
		zap.String("stage", "generate_hypothesis"),
		zap.String("primary", hyp.Primary),
		zap.Strings("alternates", hyp.Alternates),
	)
	return hyp, usage, nil
}

// manufacturingIndicators are the lexical signals that a manufacturing-type
// hint genuinely describes production work.
var manufacturingIndicators = []string{"manufactur", "fabricat", "production", "machining", "moulding", "molding", "casting"}

// applyClueOverrides corrects the primary label against extracted evidence.
func applyClueOverrides(primary string, clues *model.ClueBundle) string {
	mfgType := strings.ToLower(strings.TrimSpace(clues.SectorClues.ManufacturingType))
	for _, ind := range manufacturingIndicators {
		if strings.Contains(mfgType, ind) {
			return mfgType
		}
	}

	if len(clues.SectorClues.ExplicitSectors) > 0 && !overlapsAny(primary, clues.SectorClues.ExplicitSectors) {
		return strings.ToLower(strings.TrimSpace(clues.SectorClues.ExplicitSectors[0]))
	}
	return primary
}

// overlapsAny reports whether any word of the label appears in any of the
// sector strings, or vice versa.
func overlapsAny(label string, sectors []string) bool {
	labelWords := strings.Fields(strings.ToLower(label))
	for _, sector := range sectors {
		sector = strings.ToLower(sector)
		for _, w := range labelWords {
			if len(w) > 3 && strings.Contains(sector, w) {
				return true
			}
		}
		for _, w := range strings.Fields(sector) {
			if len(w) > 3 && strings.Contains(strings.ToLower(label), w) {
				return true
			}
		}
	}
	return false
}

// alternateFallbacks maps primary-label fragments to deterministic alternate
// labels used when the classification returns fewer than two alternates.
var alternateFallbacks = []struct {
	fragment string
	labels   []string
}{
	{"cnc", []string{"precision engineering services", "metal fabrication"}},
	{"machining", []string{"precision engineering services", "metal fabrication"}},
	{"fabricat", []string{"sheet metal fabrication", "precision engineering services"}},
	{"sheet metal", []string{"metal fabrication", "precision engineering services"}},
	{"food", []string{"food production", "fmcg manufacturing"}},
	{"hvac", []string{"building services engineering", "mechanical installation services"}},
	{"software", []string{"industrial software development", "engineering consultancy"}},
	{"electrical", []string{"electrical contracting", "building services engineering"}},
}

// genericAlternates backstop the fallback table for unrecognized primaries.
var genericAlternates = []string{"industrial manufacturing", "engineering services", "business services"}

// padAlternates guarantees exactly two alternates, distinct from the primary
// and from each other.
func padAlternates(primary string, alts []string) []string {
	out := make([]string, 0, 2)
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(primary)): true}

	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" || len(out) >= 2 {
			return
		}
		key := strings.ToLower(label)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, label)
	}

	for _, a := range alts {
		add(a)
	}

	lower := strings.ToLower(primary)
	for _, fb := range alternateFallbacks {
		if strings.Contains(lower, fb.fragment) {
			for _, l := range fb.labels {
				add(l)
			}
			break
		}
	}
	for _, l := range genericAlternates {
		add(l)
	}
	return out[:2]
}
