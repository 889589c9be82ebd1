package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/talentsignal/employer-cli/internal/model"
)

// postingColumns are the scraper-CSV columns the batch command requires.
var postingColumns = []string{
	"job_id",
	"scraped_job_title",
	"recruiter_name",
	"job_location_text",
	"full_job_description",
}

// enrichedColumns are the output columns, in the flattened-record order the
// enrichment consumers expect.
var enrichedColumns = []string{
	"job_id",
	"scraped_job_title",
	"recruiter_name",
	"job_location_text",
	"full_job_description",
	"extracted_clues",
	"industrial_cluster",
	"cluster_summary",
	"potential_companies",
	"all_companies_readable",
	"analysis_summary",
	"top_company",
	"top_confidence",
	"top_score",
}

// ParsePostingsCSV reads a scraper-exported CSV and returns the postings.
// Rows without a job_id are skipped; duplicate job_ids keep the first row.
func ParsePostingsCSV(csvPath string) ([]model.PostingRecord, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, eris.Wrap(err, "postings: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "postings: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("postings: csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}
	for _, col := range postingColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("postings: missing required column %q", col)
		}
	}

	seen := make(map[string]bool)
	var postings []model.PostingRecord

	for _, row := range records[1:] {
		jobID := strings.TrimSpace(getCol(row, colIdx, "job_id"))
		if jobID == "" || seen[jobID] {
			continue
		}
		seen[jobID] = true

		postings = append(postings, model.PostingRecord{
			JobID:         jobID,
			Title:         strings.TrimSpace(getCol(row, colIdx, "scraped_job_title")),
			RecruiterName: strings.TrimSpace(getCol(row, colIdx, "recruiter_name")),
			LocationText:  strings.TrimSpace(getCol(row, colIdx, "job_location_text")),
			Description:   getCol(row, colIdx, "full_job_description"),
		})
	}

	if len(postings) == 0 {
		return nil, eris.New("postings: no valid postings found in csv")
	}
	return postings, nil
}

// WriteEnrichedCSV writes the enriched records to outputPath, one row per
// posting, in input order.
func WriteEnrichedCSV(records []model.EnrichedRecord, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return eris.Wrap(err, "enriched: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(enrichedColumns); err != nil {
		return eris.Wrap(err, "enriched: write header")
	}
	for _, rec := range records {
		if err := w.Write(enrichedRow(rec)); err != nil {
			return eris.Wrap(err, "enriched: write row")
		}
	}
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "enriched: flush csv")
	}
	return nil
}

func enrichedRow(rec model.EnrichedRecord) []string {
	return []string{
		rec.JobID,
		rec.Title,
		rec.RecruiterName,
		rec.LocationText,
		rec.Description,
		rec.ExtractedClues,
		rec.IndustrialCluster,
		rec.ClusterSummary,
		rec.PotentialCompanies,
		rec.AllCompaniesReadable,
		rec.AnalysisSummary,
		rec.TopCompany,
		fmt.Sprintf("%.2f", rec.TopConfidence),
		strconv.Itoa(rec.TopScore),
	}
}

// getCol safely retrieves a column value from a CSV row.
func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
