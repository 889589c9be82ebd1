package model

import "strings"

// LocationClues holds geographic signals extracted from a posting.
type LocationClues struct {
	PrimaryTown  string   `json:"primary_town"`
	CommuteTowns []string `json:"commute_towns"`
	Region       string   `json:"region"`
	Postcode     string   `json:"postcode"`
	MultiSite    bool     `json:"multi_site"`
}

// SectorClues holds industry signals extracted from a posting.
type SectorClues struct {
	ExplicitSectors   []string `json:"explicit_sectors"`
	ImplicitSectors   []string `json:"implicit_sectors"`
	ManufacturingType string   `json:"manufacturing_type"`
	B2BOrConsumer     string   `json:"b2b_or_consumer"`
}

// SalaryBenefitsClues holds compensation signals.
type SalaryBenefitsClues struct {
	SalaryMin    int      `json:"salary_min"`
	SalaryMax    int      `json:"salary_max"`
	Benefits     []string `json:"benefits"`
	ShiftPattern string   `json:"shift_pattern"`
}

// RoleClues holds role and seniority signals.
type RoleClues struct {
	JobTitle  string `json:"job_title"`
	Seniority string `json:"seniority"`
	ReportsTo string `json:"reports_to"`
	TeamSize  string `json:"team_size"`
}

// ClueBundle is the structured extraction from a posting's text. It is
// created once by the clue extractor and read-only afterwards, except for
// the append-only term merge performed by the search-term synthesizer.
type ClueBundle struct {
	LocationClues       LocationClues       `json:"location_clues"`
	SectorClues         SectorClues         `json:"sector_clues"`
	MachineryClues      []string            `json:"machinery_clues"`
	SoftwareClues       []string            `json:"software_clues"`
	StandardsClues      []string            `json:"standards_clues"`
	SalaryBenefitsClues SalaryBenefitsClues `json:"salary_benefits_clues"`
	RoleClues           RoleClues           `json:"role_clues"`
	OrgClues            []string            `json:"org_clues"`
	NarrativeClues      []string            `json:"narrative_clues"`
	WorkEnvironment     []string            `json:"work_environment_clues"`
	CustomerMarket      []string            `json:"customer_market_clues"`
	TravelClues         []string            `json:"travel_clues"`
	UniqueDiffs         []string            `json:"unique_differentiators"`
	SummaryNarrative    string              `json:"summary_narrative"`

	// SearchKeywords are the top-K synthesized search terms from the
	// search-term synthesizer, not part of the extraction taxonomy.
	SearchKeywords []string `json:"search_keywords,omitempty"`

	// ExtractionError marks a failed extraction; downstream stages must
	// tolerate an empty bundle.
	ExtractionError string `json:"error,omitempty"`
}

// UniqueClues returns the combined machinery and software term list. A match
// against any of these in a search snippet is treated as strong evidence.
func (c *ClueBundle) UniqueClues() []string {
	out := make([]string, 0, len(c.MachineryClues)+len(c.SoftwareClues))
	out = append(out, c.MachineryClues...)
	out = append(out, c.SoftwareClues...)
	return out
}

// MergeTerms appends machinery and software terms, skipping duplicates
// case-insensitively. Existing entries are never removed or overwritten.
func (c *ClueBundle) MergeTerms(machinery, software []string) {
	c.MachineryClues = appendUnique(c.MachineryClues, machinery)
	c.SoftwareClues = appendUnique(c.SoftwareClues, software)
}

// IsEmpty reports whether the bundle carries no usable signals.
func (c *ClueBundle) IsEmpty() bool {
	return c.LocationClues.PrimaryTown == "" &&
		c.LocationClues.Postcode == "" &&
		len(c.SectorClues.ExplicitSectors) == 0 &&
		len(c.SectorClues.ImplicitSectors) == 0 &&
		len(c.MachineryClues) == 0 &&
		len(c.SoftwareClues) == 0 &&
		len(c.UniqueDiffs) == 0 &&
		c.SummaryNarrative == ""
}

func appendUnique(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, t := range incoming {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, t)
	}
	return existing
}
