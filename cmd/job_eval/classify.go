package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-evaluator/internal/export"
	"github.com/jonathan/job-evaluator/internal/pipeline"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Recommend a classification level for a single position description",
	Long: `Evaluates one position description against the full 17-level grading matrix
and recommends a classification level. Pass --from-run with the ID of an
earlier evaluation run to reuse its comparison and gauge results as change
context; otherwise the document is classified on its own.`,
	RunE: runClassify,
}

var (
	classifyDocument string
	classifyFromRun  string
	classifyJSON     bool
	classifyVerbose  bool
)

func init() {
	classifyCmd.Flags().StringVarP(&classifyDocument, "document", "d", "", "Path to the position description (required)")
	classifyCmd.Flags().StringVar(&classifyFromRun, "from-run", "", "Run ID of an earlier evaluation to use as change context")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print the raw result as JSON instead of a report")
	classifyCmd.Flags().BoolVarP(&classifyVerbose, "verbose", "v", false, "Print stage progress")
	_ = classifyCmd.MarkFlagRequired("document")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	var contextRunID uuid.UUID
	if classifyFromRun != "" {
		parsed, err := uuid.Parse(classifyFromRun)
		if err != nil {
			return fmt.Errorf("invalid --from-run value %q: %w", classifyFromRun, err)
		}
		contextRunID = parsed
	}

	a, err := buildApp(ctx, classifyVerbose)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Classify(ctx, pipeline.ClassifyRequest{
		Path:         classifyDocument,
		ContextRunID: contextRunID,
	})
	if err != nil {
		return err
	}

	if classifyJSON {
		return printJSON(result)
	}

	report := export.FormatClassification(result)
	fmt.Println(report)
	return writeReport(ctx, a, result.RunID, report)
}
