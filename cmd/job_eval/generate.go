package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-evaluator/internal/export"
	"github.com/jonathan/job-evaluator/internal/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate job descriptions from an intake questionnaire",
	Long: `Reads a job description request from a JSON file and generates a structured
job description with every configured provider in parallel. A provider
failure does not abort the run; the report marks it as failed.`,
	RunE: runGenerate,
}

var (
	generateInput   string
	generateJSON    bool
	generateVerbose bool
)

func init() {
	generateCmd.Flags().StringVarP(&generateInput, "input", "i", "", "Path to the request JSON file, or - for stdin (required)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the raw result as JSON instead of a report")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "Print stage progress")
	_ = generateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	req, err := readGenerateRequest(generateInput)
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, generateVerbose)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.pipeline.Generate(ctx, *req)
	if err != nil {
		return err
	}

	if generateJSON {
		return printJSON(result)
	}

	report := export.FormatGeneration(result.Result)
	fmt.Println(report)
	return writeReport(ctx, a, result.RunID, report)
}

func readGenerateRequest(path string) (*types.JobDescriptionRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}

	var req types.JobDescriptionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parsing request JSON: %w", err)
	}
	return &req, nil
}
