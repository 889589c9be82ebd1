package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/pipeline"
)

var (
	batchCSV     string
	batchOutput  string
	batchReport  string
	batchLimit   int
	batchOffline bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Identify hiring companies for a CSV of job postings",
	Long: `Reads a scraper-exported postings CSV, runs the identification
pipeline for each posting concurrently, and writes the enriched CSV. A failed
posting becomes an error row; the batch always completes.

Examples:
  # Offline smoke run against stub providers
  employer-cli batch --csv postings.csv --offline --limit 1

  # Real run
  employer-cli batch --csv postings.csv --output postings-enriched.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		postings, err := pipeline.ParsePostingsCSV(batchCSV)
		if err != nil {
			return eris.Wrap(err, "batch: parse csv")
		}
		if batchLimit > 0 && batchLimit < len(postings) {
			postings = postings[:batchLimit]
		}
		zap.L().Info("batch: parsed postings", zap.Int("postings", len(postings)))

		var env *pipelineEnv
		if batchOffline {
			env, err = initOfflinePipeline(ctx)
		} else {
			env, err = initPipeline(ctx)
		}
		if err != nil {
			return err
		}
		defer env.Close()

		records := processPostings(ctx, postings, cfg.Batch.MaxConcurrentPostings, env.Pipeline.Identify)

		outPath := batchOutput
		if outPath == "" {
			outPath = strings.TrimSuffix(batchCSV, ".csv") + "-enriched.csv"
		}
		if err := pipeline.WriteEnrichedCSV(records, outPath); err != nil {
			return eris.Wrap(err, "batch: write output")
		}
		zap.L().Info("batch: enriched csv written", zap.String("path", outPath))

		if batchReport != "" {
			if err := writeBatchReport(batchReport, postings, records); err != nil {
				return eris.Wrap(err, "batch: write report")
			}
			zap.L().Info("batch: report written", zap.String("path", batchReport))
		}
		return nil
	},
}

// identifyFunc is the per-posting pipeline entry point.
type identifyFunc func(ctx context.Context, posting model.PostingRecord) (*pipeline.Outcome, error)

// processPostings runs identification for each posting with bounded
// concurrency. Individual failures become error records; output order matches
// input order.
func processPostings(ctx context.Context, postings []model.PostingRecord, concurrency int, identify identifyFunc) []model.EnrichedRecord {
	if concurrency <= 0 {
		concurrency = 1
	}

	records := make([]model.EnrichedRecord, len(postings))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, posting := range postings {
		g.Go(func() error {
			log := zap.L().With(zap.String("job_id", posting.JobID))

			outcome, err := identify(gctx, posting)
			if err != nil {
				failed.Add(1)
				log.Error("batch: posting failed", zap.Error(err))
				records[i] = model.ErrorRecord(posting, err)
				return nil // one bad posting never aborts the batch
			}

			succeeded.Add(1)
			records[i] = model.Flatten(posting, outcome.Clues, outcome.Result)
			log.Info("batch: posting complete",
				zap.String("top_company", records[i].TopCompany),
				zap.Float64("top_confidence", records[i].TopConfidence),
			)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch: complete",
		zap.Int("postings", len(postings)),
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return records
}

// writeBatchReport renders the per-posting readable reports into one file.
func writeBatchReport(path string, postings []model.PostingRecord, records []model.EnrichedRecord) error {
	var b strings.Builder
	for i, posting := range postings {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(reportFromRecord(posting, records[i]))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func reportFromRecord(posting model.PostingRecord, rec model.EnrichedRecord) string {
	var result model.IdentificationResult
	result.AnalysisSummary = rec.AnalysisSummary
	// Best effort: the flattened JSON columns carry everything the report needs.
	_ = json.Unmarshal([]byte(rec.PotentialCompanies), &result.Companies)
	_ = json.Unmarshal([]byte(rec.IndustrialCluster), &result.Cluster)
	return pipeline.FormatReport(posting, &result)
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "input postings CSV (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output CSV path (default: <input>-enriched.csv)")
	batchCmd.Flags().StringVar(&batchReport, "report", "", "also write a readable per-posting report to this path")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max postings to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchOffline, "offline", false, "use stub providers (no API keys needed)")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
