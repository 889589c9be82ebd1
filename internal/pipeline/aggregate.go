package pipeline

import (
	"fmt"
	"strings"

	"github.com/talentsignal/employer-cli/internal/model"
)

// BuildResult finalizes the identification result handed back to the caller.
// It always produces a result object; an empty candidate list is a valid,
// non-error outcome.
func BuildResult(hyp model.IndustryHypothesis, result *model.IdentificationResult, clues *model.ClueBundle, posting model.PostingRecord) *model.IdentificationResult {
	if result == nil {
		result = &model.IdentificationResult{}
	}
	result.Hypothesis = hyp

	if result.Cluster.Location == "" {
		result.Cluster.Location = primaryTown(clues, posting.LocationText)
	}
	if len(result.Cluster.MainSectors) == 0 {
		result.Cluster.MainSectors = hyp.Labels()
	}

	if result.AnalysisSummary == "" {
		if len(result.Companies) == 0 {
			result.AnalysisSummary = "No candidates passed evidence filtering and hard constraints."
		} else {
			result.AnalysisSummary = fmt.Sprintf("Identified %d candidate(s) for the %q hypothesis.",
				len(result.Companies), hyp.Primary)
		}
	}
	return result
}

// FormatReport renders the per-posting text report printed by the identify
// command and written alongside batch output.
func FormatReport(posting model.PostingRecord, result *model.IdentificationResult) string {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 70))
	b.WriteString("\n")
	fmt.Fprintf(&b, "JOB: %s\n", posting.Title)
	fmt.Fprintf(&b, "LOCATION: %s\n", posting.LocationText)
	fmt.Fprintf(&b, "RECRUITER: %s\n", posting.RecruiterName)
	b.WriteString(strings.Repeat("=", 70))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Industry hypothesis: %s (alternates: %s)\n",
		result.Hypothesis.Primary, strings.Join(result.Hypothesis.Alternates, ", "))
	if summary := result.Cluster.Summary(); summary != "" {
		fmt.Fprintf(&b, "Industrial cluster: %s\n", summary)
	}
	b.WriteString("\n")

	if len(result.Companies) == 0 {
		b.WriteString("No candidate companies identified.\n")
	} else {
		for i, c := range result.Companies {
			marker := " "
			if c.PostcodeMatchesJob {
				marker = "*"
			}
			fmt.Fprintf(&b, "#%d %s %s\n", i+1, marker, c.CompanyName)
			fmt.Fprintf(&b, "     Postcode: %s | Score: %d/%d | Confidence: %.0f%%\n",
				orDash(c.CompanyPostcode), c.TotalScore, model.MaxTotalScore, c.Confidence*100)
			if c.Reasoning != "" {
				fmt.Fprintf(&b, "     %s\n", c.Reasoning)
			}
			b.WriteString("\n")
		}
	}

	if result.AnalysisSummary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", result.AnalysisSummary)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
