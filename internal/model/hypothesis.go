package model

// IndustryHypothesis is a candidate industry framing used to scope search.
// Alternates always has exactly two entries; the hypothesis generator pads
// with deterministic fallbacks when the classification service returns fewer.
type IndustryHypothesis struct {
	Primary    string   `json:"primary"`
	Alternates []string `json:"alternates"`
}

// Labels returns the primary label followed by the alternates.
func (h IndustryHypothesis) Labels() []string {
	out := make([]string, 0, 1+len(h.Alternates))
	out = append(out, h.Primary)
	out = append(out, h.Alternates...)
	return out
}

// SearchParameterSet holds the per-hypothesis search vocabulary. It is owned
// exclusively by its hypothesis label and never shared.
type SearchParameterSet struct {
	Industry         string   `json:"industry"`
	DiagnosingTerms  []string `json:"diagnosing_terms"`  // 3-5 terms distinctive to the industry
	EvidenceKeywords []string `json:"evidence_keywords"` // 5-8 lowercase terms proving industry match
	ExclusionTerms   []string `json:"exclusion_terms"`   // 0-5 terms to exclude from queries
}
