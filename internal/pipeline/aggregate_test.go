package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsignal/employer-cli/internal/model"
)

func TestBuildResult_ClusterFallbacks(t *testing.T) {
	hyp := cncHypothesis()
	result := BuildResult(hyp, &model.IdentificationResult{}, &model.ClueBundle{}, cncPosting())

	assert.Equal(t, "Leicester", result.Cluster.Location)
	assert.Equal(t, hyp.Labels(), result.Cluster.MainSectors)
	assert.NotEmpty(t, result.AnalysisSummary)
}

func TestBuildResult_EmptyListIsValid(t *testing.T) {
	result := BuildResult(cncHypothesis(), nil, &model.ClueBundle{}, cncPosting())

	require.NotNil(t, result)
	assert.Empty(t, result.Companies)
	assert.Nil(t, result.Top())
}

func TestBuildResult_KeepsRankerCluster(t *testing.T) {
	in := &model.IdentificationResult{
		Cluster:         model.IndustrialCluster{Location: "Beaumont Leys", MainSectors: []string{"aerospace"}},
		AnalysisSummary: "one candidate",
	}
	result := BuildResult(cncHypothesis(), in, &model.ClueBundle{}, cncPosting())

	assert.Equal(t, "Beaumont Leys", result.Cluster.Location)
	assert.Equal(t, "Beaumont Leys: aerospace", result.Cluster.Summary())
	assert.Equal(t, "one candidate", result.AnalysisSummary)
}

func TestFormatReport(t *testing.T) {
	result := rankedResult()
	result.Companies[0].PostcodeMatchesJob = true
	result.Companies[0].Reasoning = "Company postcode: LE4 5BY - matches job postcode LE4."
	result.Cluster = model.IndustrialCluster{Location: "Leicester", MainSectors: []string{"precision engineering"}}
	result.AnalysisSummary = "one strong match"

	report := FormatReport(cncPosting(), result)

	assert.Contains(t, report, "JOB: CNC Setter/Operator")
	assert.Contains(t, report, "RECRUITER: Precision People")
	assert.Contains(t, report, "Midland Precision Engineering Ltd")
	assert.Contains(t, report, "Score: 59/70")
	assert.Contains(t, report, "Confidence: 84%")
	assert.Contains(t, report, "Leicester: precision engineering")
	assert.Contains(t, report, "one strong match")
}

func TestFormatReport_EmptyResult(t *testing.T) {
	result := &model.IdentificationResult{Hypothesis: cncHypothesis()}
	report := FormatReport(cncPosting(), result)
	assert.Contains(t, report, "No candidate companies identified.")
}
