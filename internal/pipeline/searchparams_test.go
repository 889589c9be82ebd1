package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentsignal/employer-cli/internal/model"
)

func TestGenerateSearchParams_Success(t *testing.T) {
	ai := &StubAnthropicClient{}
	cfg := testConfig()

	params, usage := GenerateSearchParams(context.Background(), ai, cfg.Anthropic, cfg.Identify,
		"cnc machining", cncPosting(), &model.ClueBundle{})

	assert.Equal(t, "cnc machining", params.Industry)
	assert.Equal(t, []string{"cnc milling", "5-axis machining", "precision engineering"}, params.DiagnosingTerms)
	assert.Contains(t, params.EvidenceKeywords, "cnc")
	assert.Equal(t, 200, usage.InputTokens)
}

func TestGenerateSearchParams_FailureFallsBackToMachinery(t *testing.T) {
	ai := &StubAnthropicClient{Err: errors.New("boom")}
	cfg := testConfig()

	clues := &model.ClueBundle{MachineryClues: []string{"Mazak CNC mill", "Amada press brake"}}
	params, _ := GenerateSearchParams(context.Background(), ai, cfg.Anthropic, cfg.Identify,
		"cnc machining", cncPosting(), clues)

	assert.Equal(t, "cnc machining", params.Industry)
	assert.Equal(t, []string{"Mazak CNC mill", "Amada press brake"}, params.DiagnosingTerms)
	assert.Equal(t, "cnc machining", params.EvidenceKeywords[0])
	assert.Contains(t, params.EvidenceKeywords, "mazak cnc mill")
}

func TestGenerateSearchParams_FallbackWithNoMachinery(t *testing.T) {
	ai := &StubAnthropicClient{ParamsJSON: "not json"}
	cfg := testConfig()

	params, _ := GenerateSearchParams(context.Background(), ai, cfg.Anthropic, cfg.Identify,
		"building services", cncPosting(), &model.ClueBundle{})

	// The label itself diagnoses, so at least one query is always possible.
	assert.Equal(t, []string{"building services"}, params.DiagnosingTerms)
	assert.Equal(t, []string{"building services"}, params.EvidenceKeywords)
}

func TestGenerateSearchParams_ClampsLists(t *testing.T) {
	ai := &StubAnthropicClient{ParamsJSON: `{
		"industry": "x",
		"diagnosing_terms": ["a", "b", "c", "d", "e", "f", "g"],
		"evidence_keywords": ["K1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9"],
		"exclusion_terms": ["e1", "e2", "e3", "e4", "e5", "e6"]
	}`}
	cfg := testConfig()

	params, _ := GenerateSearchParams(context.Background(), ai, cfg.Anthropic, cfg.Identify,
		"cnc machining", cncPosting(), &model.ClueBundle{})

	assert.Len(t, params.DiagnosingTerms, 5)
	assert.Len(t, params.EvidenceKeywords, 8)
	assert.Len(t, params.ExclusionTerms, 5)
	// Evidence keywords are normalized to lower case.
	assert.Equal(t, "k1", params.EvidenceKeywords[0])
	assert.Equal(t, "cnc machining", params.Industry)
}
