package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-evaluator/internal/config"
	"github.com/jonathan/job-evaluator/internal/extraction"
	"github.com/jonathan/job-evaluator/internal/llm"
)

var extractTextCmd = &cobra.Command{
	Use:   "extract-text",
	Short: "Extract plain text from a position description document",
	Long: `Extracts normalized plain text from a document. Text and markdown files are
read directly; PDF and Word documents are transcribed by Gemini.`,
	RunE: runExtractText,
}

var (
	extractInput  string
	extractOutput string
)

func init() {
	extractTextCmd.Flags().StringVarP(&extractInput, "in", "i", "", "Path to the document (required)")
	extractTextCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Path to write the text to (default: stdout)")
	_ = extractTextCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(extractTextCmd)
}

func runExtractText(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Transcription is optional; plain text extraction works without a key.
	var transcriber llm.Client
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.DefaultGeminiConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("creating transcription client: %w", err)
		}
		defer func() { _ = client.Close() }()
		transcriber = client
	}

	text, err := extraction.NewExtractor(transcriber).Extract(ctx, extractInput)
	if err != nil {
		return err
	}

	if extractOutput == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(extractOutput, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	fmt.Printf("Text written to %s\n", extractOutput)
	return nil
}
