package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/talentsignal/employer-cli/pkg/anthropic"
	"github.com/talentsignal/employer-cli/pkg/jina"
	"github.com/talentsignal/employer-cli/pkg/perplexity"
)

// Compile-time interface checks.
var (
	_ anthropic.Client  = (*StubAnthropicClient)(nil)
	_ jina.Client       = (*StubJinaClient)(nil)
	_ perplexity.Client = (*StubPerplexityClient)(nil)
)

// Canned responses themed around a Leicester CNC machine shop, so the stub
// pipeline exercises every stage with coherent data.
const (
	stubClueJSON = `{
  "location_clues": {"primary_town": "Leicester", "commute_towns": ["Loughborough"], "region": "East Midlands", "postcode": "LE4", "multi_site": false},
  "sector_clues": {"explicit_sectors": ["precision engineering"], "implicit_sectors": ["aerospace"], "manufacturing_type": "cnc machining", "b2b_or_consumer": "B2B"},
  "machinery_clues": ["Mazak CNC mill"],
  "software_clues": ["Fusion 360"],
  "standards_clues": ["ISO 9001"],
  "salary_benefits_clues": {"salary_min": 32000, "salary_max": 38000, "benefits": ["overtime"], "shift_pattern": "days"},
  "role_clues": {"job_title": "CNC Setter/Operator", "seniority": "experienced", "reports_to": "", "team_size": ""},
  "org_clues": ["family-run"],
  "narrative_clues": ["full order book"],
  "work_environment_clues": ["machine shop"],
  "customer_market_clues": ["aerospace precision"],
  "travel_clues": [],
  "unique_differentiators": ["Mazak CNC mill"],
  "summary_narrative": "Family-run Leicester machine shop doing precision CNC work for aerospace customers."
}`

	stubTermsJSON = `{
  "machinery_terms": ["Mazak CNC mill", "press brake"],
  "software_terms": ["Fusion 360"],
  "search_keywords": ["cnc machining leicester", "precision engineering le4"]
}`

	stubHypothesisJSON = `{"primary": "cnc precision machining", "alternates": ["metal fabrication", "aerospace component manufacturing"]}`

	stubParamsJSON = `{
  "industry": "cnc precision machining",
  "diagnosing_terms": ["cnc milling", "5-axis machining", "precision engineering"],
  "evidence_keywords": ["cnc", "machining", "precision", "engineering", "manufacturer"],
  "exclusion_terms": ["jobs"]
}`

	stubRankJSON = `{
  "industrial_cluster": {"location": "Leicester", "main_sectors": ["precision engineering", "aerospace", "metal fabrication"]},
  "potential_companies": [
    {
      "company_name": "Midland Precision Engineering Ltd",
      "company_postcode": "LE4 5BY",
      "postcode_matches_job": true,
      "location_verified": "Leicester",
      "confidence": 0.84,
      "total_score": 59,
      "score_breakdown": {"geography": 8, "sector": 9, "multi_site": 5, "machinery": 9, "narrative": 7, "salary": 7, "unique_clue": 4, "industry_bonus": 10},
      "is_manufacturer": true,
      "makes_physical_products": true,
      "source_hypothesis": "cnc precision machining",
      "source_search_result": "https://example.com/midland-precision",
      "reasoning": "Company postcode: LE4 5BY - matches job postcode LE4. Located in Leicester. Runs Mazak CNC mills for aerospace customers."
    }
  ],
  "analysis_summary": "One strong candidate with a matching outward code."
}`
)

// StubAnthropicClient implements anthropic.Client with deterministic,
// schema-aware canned JSON. The stage is recognized from the system prompt,
// so every stage of the pipeline can run against the same stub. Per-stage
// responses can be overridden per test.
type StubAnthropicClient struct {
	ClueJSON       string
	TermsJSON      string
	HypothesisJSON string
	ParamsJSON     string
	RankJSON       string

	// Err, when set, fails every call.
	Err error
	// RankErr, when set, fails only ranking calls.
	RankErr error
	// HypothesisErr, when set, fails only hypothesis calls.
	HypothesisErr error

	mu    sync.Mutex
	calls []string
}

// CreateMessage implements anthropic.Client.
func (s *StubAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	var system string
	for _, blk := range req.System {
		system += blk.Text
	}

	stage, text := s.dispatch(system)
	s.mu.Lock()
	s.calls = append(s.calls, stage)
	s.mu.Unlock()

	switch stage {
	case "hypothesis":
		if s.HypothesisErr != nil {
			return nil, s.HypothesisErr
		}
	case "rank":
		if s.RankErr != nil {
			return nil, s.RankErr
		}
	}

	return &anthropic.MessageResponse{
		ID:         "stub-msg-" + stage,
		Model:      req.Model,
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage: anthropic.TokenUsage{
			InputTokens:  200,
			OutputTokens: 100,
		},
	}, nil
}

func (s *StubAnthropicClient) dispatch(system string) (string, string) {
	switch {
	case strings.Contains(system, "clue extractor"):
		return "clues", orDefault(s.ClueJSON, stubClueJSON)
	case strings.Contains(system, "distinctive technical and brand terms"):
		return "terms", orDefault(s.TermsJSON, stubTermsJSON)
	case strings.Contains(system, "infer the industry"):
		return "hypothesis", orDefault(s.HypothesisJSON, stubHypothesisJSON)
	case strings.Contains(system, "web-search vocabulary"):
		return "params", orDefault(s.ParamsJSON, stubParamsJSON)
	case strings.Contains(system, "structured, transparent process"):
		return "rank", orDefault(s.RankJSON, stubRankJSON)
	default:
		return "unknown", "{}"
	}
}

// Calls returns the stage names seen so far, in call order.
func (s *StubAnthropicClient) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// StubJinaClient implements jina.Client with a fixed hit list and records
// every query it receives.
type StubJinaClient struct {
	// Results is returned for every query unless a ByQuery entry matches.
	Results []jina.SearchResult
	// ByQuery overrides Results for queries containing the key.
	ByQuery map[string][]jina.SearchResult
	Err     error

	mu      sync.Mutex
	queries []string
}

// DefaultStubHits returns search results consistent with the canned ranking
// response: the snippet names the company and carries both an evidence
// keyword and a physical-production term.
func DefaultStubHits() []jina.SearchResult {
	return []jina.SearchResult{
		{
			Title:       "Midland Precision Engineering Ltd - CNC Machining Leicester",
			URL:         "https://example.com/midland-precision",
			Description: "Midland Precision Engineering Ltd runs a Leicester factory of Mazak CNC mills, precision machining for aerospace.",
		},
	}
}

// Search implements jina.Client.
func (s *StubJinaClient) Search(_ context.Context, query string, opts ...jina.SearchOption) (*jina.SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	for key, hits := range s.ByQuery {
		if strings.Contains(query, key) {
			return &jina.SearchResponse{Code: 200, Data: hits}, nil
		}
	}
	return &jina.SearchResponse{Code: 200, Data: s.Results}, nil
}

// Queries returns the queries issued so far.
func (s *StubJinaClient) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// StubPerplexityClient implements perplexity.Client with a fixed answer.
type StubPerplexityClient struct {
	Answer string
	Err    error
}

// ChatCompletion implements perplexity.Client.
func (s *StubPerplexityClient) ChatCompletion(_ context.Context, _ perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &perplexity.ChatCompletionResponse{
		ID: "stub-pplx-001",
		Choices: []perplexity.Choice{
			{Index: 0, Message: perplexity.Message{Role: "assistant", Content: s.Answer}},
		},
	}, nil
}

// Lookup implements perplexity.Client.
func (s *StubPerplexityClient) Lookup(ctx context.Context, prompt string) (string, error) {
	resp, err := s.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}
