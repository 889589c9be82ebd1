package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *IdentificationResult {
	return &IdentificationResult{
		Hypothesis: IndustryHypothesis{Primary: "cnc machining", Alternates: []string{"metal fabrication", "aerospace"}},
		Cluster:    IndustrialCluster{Location: "Leicester", MainSectors: []string{"precision engineering", "textiles"}},
		Companies: []CandidateOrganization{
			{CompanyName: "Midland Precision Engineering Ltd", Confidence: 0.84, TotalScore: 59},
			{CompanyName: "Eastgate Tooling Ltd", Confidence: 0.5, TotalScore: 35},
		},
		AnalysisSummary: "two candidates in the LE4 cluster",
	}
}

func TestScoreBreakdownTotal(t *testing.T) {
	s := ScoreBreakdown{Geography: 8, Sector: 9, MultiSite: 5, Machinery: 9, Narrative: 7, Salary: 7, UniqueClue: 4, IndustryBonus: 10}
	assert.Equal(t, 59, s.Total())
	assert.Equal(t, 0, ScoreBreakdown{}.Total())
}

func TestIdentificationResultTop(t *testing.T) {
	r := sampleResult()
	require.NotNil(t, r.Top())
	assert.Equal(t, "Midland Precision Engineering Ltd", r.Top().CompanyName)

	assert.Nil(t, (&IdentificationResult{}).Top())
}

func TestClusterSummary(t *testing.T) {
	c := IndustrialCluster{Location: "Leicester", MainSectors: []string{"precision engineering", "textiles"}}
	assert.Equal(t, "Leicester: precision engineering, textiles", c.Summary())
	assert.Equal(t, "", IndustrialCluster{}.Summary())
}

func TestReadableCompanies(t *testing.T) {
	r := sampleResult()
	got := r.ReadableCompanies()
	assert.Equal(t, "Midland Precision Engineering Ltd (84%, Score: 59/70) | Eastgate Tooling Ltd (50%, Score: 35/70)", got)

	assert.Equal(t, "", (&IdentificationResult{}).ReadableCompanies())
}

func TestFlatten(t *testing.T) {
	posting := PostingRecord{JobID: "job-1", Title: "CNC Setter", RecruiterName: "Precision People", LocationText: "Leicester, LE4"}
	clues := &ClueBundle{MachineryClues: []string{"Mazak CNC mill"}}

	rec := Flatten(posting, clues, sampleResult())

	assert.Equal(t, "job-1", rec.JobID)
	assert.Equal(t, "Precision People", rec.RecruiterName)
	assert.Contains(t, rec.ExtractedClues, "Mazak CNC mill")
	assert.Contains(t, rec.IndustrialCluster, "Leicester")
	assert.Contains(t, rec.PotentialCompanies, "Midland Precision Engineering Ltd")
	assert.Equal(t, "Leicester: precision engineering, textiles", rec.ClusterSummary)
	assert.Equal(t, "two candidates in the LE4 cluster", rec.AnalysisSummary)
	assert.Equal(t, "Midland Precision Engineering Ltd", rec.TopCompany)
	assert.Equal(t, 0.84, rec.TopConfidence)
	assert.Equal(t, 59, rec.TopScore)
}

func TestFlatten_NilInputs(t *testing.T) {
	rec := Flatten(PostingRecord{JobID: "job-2"}, nil, nil)

	assert.Equal(t, "{}", rec.ExtractedClues)
	assert.Equal(t, "{}", rec.IndustrialCluster)
	assert.Equal(t, "[]", rec.PotentialCompanies)
	assert.Equal(t, "", rec.TopCompany)
	assert.Zero(t, rec.TopConfidence)
}

func TestErrorRecord(t *testing.T) {
	posting := PostingRecord{JobID: "job-3", Title: "Welder"}
	rec := ErrorRecord(posting, errors.New("hypothesis generation failed"))

	assert.Equal(t, "job-3", rec.JobID)
	assert.Equal(t, "ERROR: hypothesis generation failed", rec.AnalysisSummary)
	assert.Equal(t, "[]", rec.PotentialCompanies)
	assert.Equal(t, "", rec.TopCompany)
}
