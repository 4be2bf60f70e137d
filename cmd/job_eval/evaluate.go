package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/export"
	"github.com/jonathan/job-evaluator/internal/pipeline"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compare two position description versions",
	Long: `Compares an old and new version of a position description and reports what
changed. With --with-gauge the changes are also assessed for re-evaluation
materiality; with --with-classify a classification level is recommended using
the comparison and gauge output as context.`,
	RunE: runEvaluate,
}

var (
	evaluateOld          string
	evaluateNew          string
	evaluateLevel        int
	evaluateWithGauge    bool
	evaluateWithClassify bool
	evaluateJSON         bool
	evaluateVerbose      bool
)

func init() {
	evaluateCmd.Flags().StringVar(&evaluateOld, "old", "", "Path to the old position description (required)")
	evaluateCmd.Flags().StringVar(&evaluateNew, "new", "", "Path to the new position description (required)")
	evaluateCmd.Flags().IntVar(&evaluateLevel, "level", 0, "Current classification level 1-17 (default: detected from the new document's filename)")
	evaluateCmd.Flags().BoolVar(&evaluateWithGauge, "with-gauge", false, "Assess whether the changes warrant re-evaluation")
	evaluateCmd.Flags().BoolVar(&evaluateWithClassify, "with-classify", false, "Recommend a classification level (implies --with-gauge)")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "Print the raw result as JSON instead of a report")
	evaluateCmd.Flags().BoolVarP(&evaluateVerbose, "verbose", "v", false, "Print stage progress")
	_ = evaluateCmd.MarkFlagRequired("old")
	_ = evaluateCmd.MarkFlagRequired("new")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, evaluateVerbose)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Evaluate(ctx, pipeline.EvaluationRequest{
		OldPath:      evaluateOld,
		NewPath:      evaluateNew,
		CurrentLevel: evaluateLevel,
		WithGauge:    evaluateWithGauge,
		WithClassify: evaluateWithClassify,
	})
	if err != nil {
		return err
	}

	if evaluateJSON {
		return printJSON(result)
	}

	report := export.FormatEvaluation(result)
	fmt.Println(report)
	return writeReport(ctx, a, result.RunID, report)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport saves the rendered report beside the run's artifacts and under
// the output directory.
func writeReport(ctx context.Context, a *app, runID uuid.UUID, report string) error {
	if err := a.store.SaveTextArtifact(ctx, runID, db.StepReport, report); err != nil {
		return fmt.Errorf("saving report artifact: %w", err)
	}
	path, err := export.WriteReport(a.cfg.OutputDir, runID.String(), report)
	if err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}
