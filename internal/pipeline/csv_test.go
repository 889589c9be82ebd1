package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsignal/employer-cli/internal/model"
)

func writeTestCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParsePostingsCSV(t *testing.T) {
	path := writeTestCSV(t, `job_id,scraped_job_title,recruiter_name,job_location_text,full_job_description
job-1,CNC Setter/Operator,Precision People,"Leicester, LE4","Setting and operating Mazak CNC mills."
job-2,Welder,Jark Recruitment,Derby,"MIG welding on sheet metal assemblies."
,Ghost Row,Nobody,Nowhere,skipped
job-1,Duplicate,Precision People,Leicester,skipped
`)

	postings, err := ParsePostingsCSV(path)
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, "job-1", postings[0].JobID)
	assert.Equal(t, "CNC Setter/Operator", postings[0].Title)
	assert.Equal(t, "Leicester, LE4", postings[0].LocationText)
	assert.Equal(t, "Setting and operating Mazak CNC mills.", postings[0].Description)
	assert.Equal(t, "job-2", postings[1].JobID)
}

func TestParsePostingsCSV_MissingColumn(t *testing.T) {
	path := writeTestCSV(t, `job_id,scraped_job_title
job-1,CNC Setter
`)
	_, err := ParsePostingsCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recruiter_name")
}

func TestParsePostingsCSV_NoRows(t *testing.T) {
	path := writeTestCSV(t, "job_id,scraped_job_title,recruiter_name,job_location_text,full_job_description\n")
	_, err := ParsePostingsCSV(path)
	assert.Error(t, err)
}

func TestWriteEnrichedCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "enriched.csv")
	records := []model.EnrichedRecord{
		{
			JobID:              "job-1",
			Title:              "CNC Setter/Operator",
			RecruiterName:      "Precision People",
			LocationText:       "Leicester, LE4",
			Description:        "Setting and operating Mazak CNC mills.",
			ExtractedClues:     `{"machinery_clues":["Mazak CNC mill"]}`,
			IndustrialCluster:  `{"location":"Leicester"}`,
			ClusterSummary:     "Leicester: precision engineering",
			PotentialCompanies: `[{"company_name":"Midland Precision Engineering Ltd"}]`,
			AnalysisSummary:    "one strong match",
			TopCompany:         "Midland Precision Engineering Ltd",
			TopConfidence:      0.84,
			TopScore:           59,
		},
		model.ErrorRecord(model.PostingRecord{JobID: "job-2", Title: "Welder"}, assert.AnError),
	}

	require.NoError(t, WriteEnrichedCSV(records, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, enrichedColumns, rows[0])
	assert.Equal(t, "job-1", rows[1][0])
	assert.Equal(t, "Midland Precision Engineering Ltd", rows[1][11])
	assert.Equal(t, "0.84", rows[1][12])
	assert.Equal(t, "59", rows[1][13])

	assert.Equal(t, "job-2", rows[2][0])
	assert.Contains(t, rows[2][10], "ERROR:")
	assert.Equal(t, "0.00", rows[2][12])
}
