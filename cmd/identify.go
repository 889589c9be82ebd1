package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talentsignal/employer-cli/internal/model"
	"github.com/talentsignal/employer-cli/internal/pipeline"
)

var (
	identifyJobID     string
	identifyTitle     string
	identifyRecruiter string
	identifyLocation  string
	identifyDescFile  string
	identifyJSON      bool
	identifyOffline   bool
)

var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Identify the hiring company behind a single job posting",
	Long: `Runs the full identification pipeline for one posting and prints a
readable report. The description is read from --description-file, or from
stdin when the flag is omitted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		description, err := readDescription(identifyDescFile)
		if err != nil {
			return err
		}

		var env *pipelineEnv
		if identifyOffline {
			env, err = initOfflinePipeline(ctx)
		} else {
			env, err = initPipeline(ctx)
		}
		if err != nil {
			return err
		}
		defer env.Close()

		posting := model.PostingRecord{
			JobID:         identifyJobID,
			Title:         identifyTitle,
			RecruiterName: identifyRecruiter,
			LocationText:  identifyLocation,
			Description:   description,
		}

		outcome, err := env.Pipeline.Identify(ctx, posting)
		if err != nil {
			return eris.Wrap(err, "identify")
		}

		zap.L().Info("identification complete",
			zap.String("job_id", posting.JobID),
			zap.String("run_id", outcome.RunID),
			zap.Int("candidates", len(outcome.Result.Companies)),
		)

		if identifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(model.Flatten(posting, outcome.Clues, outcome.Result))
		}

		fmt.Fprintln(os.Stdout, pipeline.FormatReport(posting, outcome.Result))
		return nil
	},
}

func readDescription(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "identify: read description from stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "identify: read description file")
	}
	return string(b), nil
}

func init() {
	identifyCmd.Flags().StringVar(&identifyJobID, "job-id", "", "posting identifier (required)")
	identifyCmd.Flags().StringVar(&identifyTitle, "title", "", "scraped job title")
	identifyCmd.Flags().StringVar(&identifyRecruiter, "recruiter", "", "recruiter name to exclude from candidates")
	identifyCmd.Flags().StringVar(&identifyLocation, "location", "", "job location text")
	identifyCmd.Flags().StringVar(&identifyDescFile, "description-file", "", "path to the full job description (stdin when omitted)")
	identifyCmd.Flags().BoolVar(&identifyJSON, "json", false, "print the flattened record as JSON instead of the report")
	identifyCmd.Flags().BoolVar(&identifyOffline, "offline", false, "use stub providers (no API keys needed)")
	_ = identifyCmd.MarkFlagRequired("job-id")
	rootCmd.AddCommand(identifyCmd)
}
