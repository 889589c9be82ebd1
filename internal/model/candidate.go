package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ScoreBreakdown holds the per-component scores from the ranking rubric.
// Each component is 0-10; IndustryBonus is 0 or 10.
type ScoreBreakdown struct {
	Geography     int `json:"geography"`
	Sector        int `json:"sector"`
	MultiSite     int `json:"multi_site"`
	Machinery     int `json:"machinery"`
	Narrative     int `json:"narrative"`
	Salary        int `json:"salary"`
	UniqueClue    int `json:"unique_clue"`
	IndustryBonus int `json:"industry_bonus"`
}

// Total sums all components.
func (s ScoreBreakdown) Total() int {
	return s.Geography + s.Sector + s.MultiSite + s.Machinery +
		s.Narrative + s.Salary + s.UniqueClue + s.IndustryBonus
}

// MaxTotalScore is the rubric ceiling: six 0-10 components plus the
// primary-industry bonus.
const MaxTotalScore = 70

// CandidateOrganization is a scored hiring-company candidate.
type CandidateOrganization struct {
	CompanyName           string         `json:"company_name"`
	CompanyPostcode       string         `json:"company_postcode"`
	PostcodeMatchesJob    bool           `json:"postcode_matches_job"`
	LocationVerified      string         `json:"location_verified"`
	Confidence            float64        `json:"confidence"`
	TotalScore            int            `json:"total_score"`
	ScoreBreakdown        ScoreBreakdown `json:"score_breakdown"`
	IsManufacturer        bool           `json:"is_manufacturer"`
	MakesPhysicalProducts bool           `json:"makes_physical_products"`
	SourceHypothesis      string         `json:"source_hypothesis"`
	SourceSearchResult    string         `json:"source_search_result"`
	Reasoning             string         `json:"reasoning"`
}

// IndustrialCluster describes the local industry context of a posting.
type IndustrialCluster struct {
	Location    string   `json:"location"`
	MainSectors []string `json:"main_sectors"`
}

// Summary renders the cluster as "<location>: <sector1>, <sector2>, ...".
func (c IndustrialCluster) Summary() string {
	if c.Location == "" && len(c.MainSectors) == 0 {
		return ""
	}
	return c.Location + ": " + strings.Join(c.MainSectors, ", ")
}

// IdentificationResult is the terminal artifact of the pipeline: ranked
// candidates (0-5 entries, highest score first) plus the industry framing
// used to find them. An empty candidate list is a valid, non-error outcome.
type IdentificationResult struct {
	Hypothesis      IndustryHypothesis      `json:"hypothesis"`
	Cluster         IndustrialCluster       `json:"industrial_cluster"`
	Companies       []CandidateOrganization `json:"potential_companies"`
	AnalysisSummary string                  `json:"analysis_summary"`
}

// Top returns the highest-ranked candidate, or nil when the list is empty.
func (r *IdentificationResult) Top() *CandidateOrganization {
	if len(r.Companies) == 0 {
		return nil
	}
	return &r.Companies[0]
}

// ReadableCompanies renders the candidate list as a single pipe-delimited
// string for the flattened record.
func (r *IdentificationResult) ReadableCompanies() string {
	if len(r.Companies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Companies))
	for _, c := range r.Companies {
		parts = append(parts, fmt.Sprintf("%s (%.0f%%, Score: %d/%d)",
			c.CompanyName, c.Confidence*100, c.TotalScore, MaxTotalScore))
	}
	return strings.Join(parts, " | ")
}

// EnrichedRecord is the flattened output row handed to the enrichment
// collaborator. Column order matches the output contract.
type EnrichedRecord struct {
	JobID                string  `json:"job_id"`
	Title                string  `json:"scraped_job_title"`
	RecruiterName        string  `json:"recruiter_name"`
	LocationText         string  `json:"job_location_text"`
	Description          string  `json:"full_job_description"`
	ExtractedClues       string  `json:"extracted_clues"`
	IndustrialCluster    string  `json:"industrial_cluster"`
	ClusterSummary       string  `json:"cluster_summary"`
	PotentialCompanies   string  `json:"potential_companies"`
	AllCompaniesReadable string  `json:"all_companies_readable"`
	AnalysisSummary      string  `json:"analysis_summary"`
	TopCompany           string  `json:"top_company"`
	TopConfidence        float64 `json:"top_confidence"`
	TopScore             int     `json:"top_score"`
}

// Flatten builds the enriched output record from a posting, its clue bundle
// and the identification result. It always succeeds: marshal failures fall
// back to empty JSON values.
func Flatten(posting PostingRecord, clues *ClueBundle, result *IdentificationResult) EnrichedRecord {
	rec := EnrichedRecord{
		JobID:              posting.JobID,
		Title:              posting.Title,
		RecruiterName:      posting.RecruiterName,
		LocationText:       posting.LocationText,
		Description:        posting.Description,
		ExtractedClues:     "{}",
		IndustrialCluster:  "{}",
		PotentialCompanies: "[]",
	}

	if clues != nil {
		if b, err := json.Marshal(clues); err == nil {
			rec.ExtractedClues = string(b)
		}
	}
	if result == nil {
		return rec
	}

	if b, err := json.Marshal(result.Cluster); err == nil {
		rec.IndustrialCluster = string(b)
	}
	if b, err := json.Marshal(result.Companies); err == nil {
		rec.PotentialCompanies = string(b)
	}
	rec.ClusterSummary = result.Cluster.Summary()
	rec.AllCompaniesReadable = result.ReadableCompanies()
	rec.AnalysisSummary = result.AnalysisSummary

	if top := result.Top(); top != nil {
		rec.TopCompany = top.CompanyName
		rec.TopConfidence = top.Confidence
		rec.TopScore = top.TotalScore
	}
	return rec
}

// ErrorRecord builds an enriched record for a posting whose pipeline failed
// entirely. The error is surfaced in the analysis summary; all candidate
// fields are empty.
func ErrorRecord(posting PostingRecord, err error) EnrichedRecord {
	rec := Flatten(posting, nil, nil)
	if err != nil {
		rec.AnalysisSummary = "ERROR: " + err.Error()
	}
	return rec
}
