package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsignal/employer-cli/internal/model"
)

func TestGenerateHypothesis_ManufacturingTypeOverride(t *testing.T) {
	ai := &StubAnthropicClient{}
	cfg := testConfig()

	clues := &model.ClueBundle{
		SectorClues: model.SectorClues{ManufacturingType: "sheet metal fabrication"},
	}
	hyp, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, clues)

	require.NoError(t, err)
	// The manufacturing-type hint overrides the classified primary outright.
	assert.Equal(t, "sheet metal fabrication", hyp.Primary)
	assert.Len(t, hyp.Alternates, 2)
}

func TestGenerateHypothesis_ExplicitSectorOverride(t *testing.T) {
	ai := &StubAnthropicClient{HypothesisJSON: `{"primary": "logistics and warehousing", "alternates": []}`}
	cfg := testConfig()

	clues := &model.ClueBundle{
		SectorClues: model.SectorClues{ExplicitSectors: []string{"Food Production"}},
	}
	hyp, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, clues)

	require.NoError(t, err)
	// No textual overlap between the classified primary and any explicit
	// sector, so the first explicit sector wins.
	assert.Equal(t, "food production", hyp.Primary)
	assert.Len(t, hyp.Alternates, 2)
}

func TestGenerateHypothesis_OverlappingSectorKept(t *testing.T) {
	ai := &StubAnthropicClient{HypothesisJSON: `{"primary": "precision machining services", "alternates": ["metal fabrication", "toolmaking"]}`}
	cfg := testConfig()

	clues := &model.ClueBundle{
		SectorClues: model.SectorClues{ExplicitSectors: []string{"precision engineering"}},
	}
	hyp, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, clues)

	require.NoError(t, err)
	assert.Equal(t, "precision machining services", hyp.Primary)
}

func TestGenerateHypothesis_ServiceFailureIsFatal(t *testing.T) {
	ai := &StubAnthropicClient{HypothesisErr: errors.New("boom")}
	cfg := testConfig()

	_, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, &model.ClueBundle{})
	assert.Error(t, err)
}

func TestGenerateHypothesis_MalformedIsFatal(t *testing.T) {
	ai := &StubAnthropicClient{HypothesisJSON: "not json"}
	cfg := testConfig()

	_, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, &model.ClueBundle{})
	assert.Error(t, err)
}

func TestGenerateHypothesis_EmptyBundleStillTwoAlternates(t *testing.T) {
	ai := &StubAnthropicClient{HypothesisJSON: `{"primary": "general engineering", "alternates": []}`}
	cfg := testConfig()

	hyp, _, err := GenerateHypothesis(context.Background(), ai, cfg.Anthropic, &model.ClueBundle{})

	require.NoError(t, err)
	assert.Len(t, hyp.Alternates, 2)
}

func TestPadAlternates(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		alts    []string
		want    []string
	}{
		{
			name:    "cnc primary synthesizes precision engineering",
			primary: "cnc machining",
			alts:    nil,
			want:    []string{"precision engineering services", "metal fabrication"},
		},
		{
			name:    "one alternate padded",
			primary: "cnc machining",
			alts:    []string{"toolmaking"},
			want:    []string{"toolmaking", "precision engineering services"},
		},
		{
			name:    "two alternates untouched",
			primary: "food production",
			alts:    []string{"fmcg manufacturing", "food packaging"},
			want:    []string{"fmcg manufacturing", "food packaging"},
		},
		{
			name:    "duplicate of primary dropped",
			primary: "metal fabrication",
			alts:    []string{"Metal Fabrication", "welding services"},
			want:    []string{"welding services", "sheet metal fabrication"},
		},
		{
			name:    "unknown primary gets generic alternates",
			primary: "dog grooming",
			alts:    nil,
			want:    []string{"industrial manufacturing", "engineering services"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padAlternates(tt.primary, tt.alts)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 2)
		})
	}
}
