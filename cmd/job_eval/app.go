package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/job-evaluator/internal/classifier"
	"github.com/jonathan/job-evaluator/internal/comparator"
	"github.com/jonathan/job-evaluator/internal/config"
	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/extraction"
	"github.com/jonathan/job-evaluator/internal/gauge"
	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/server"
	"github.com/jonathan/job-evaluator/internal/standards"
)

// runStore is the full persistence surface the CLI wires up. Both db.DB and
// db.FileStore satisfy it.
type runStore interface {
	pipeline.Store
	server.Store
	Close()
}

// app holds the wired collaborators shared by every command.
type app struct {
	cfg      *config.Config
	store    runStore
	pipeline *pipeline.Pipeline
	closers  []func()
}

func (a *app) Close() {
	a.store.Close()
	for _, c := range a.closers {
		c()
	}
}

// buildApp loads configuration and wires the stages, store, and pipeline.
// Runs persist to PostgreSQL when DATABASE_URL is set, otherwise to JSON
// files under the artifact directory.
func buildApp(ctx context.Context, verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	matrix, err := standards.Load(cfg.StandardsPath)
	if err != nil {
		return nil, fmt.Errorf("loading classification standards: %w", err)
	}

	a := &app{cfg: cfg}

	client, err := llm.NewClient(ctx, cfg.EvaluationConfig(), cfg.EvaluationKey())
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Provider, err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	invoker := llm.NewInvoker(client)

	// Binary documents are transcribed by Gemini, even when evaluation runs
	// on another provider.
	transcriber := client
	if cfg.Provider != llm.ProviderGemini && cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, llm.DefaultGeminiConfig(), cfg.GeminiAPIKey)
		if err != nil {
			return nil, fmt.Errorf("creating transcription client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = gemini.Close() })
		transcriber = gemini
	}

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.store = database
	} else {
		fileStore, err := db.NewFileStore(cfg.ArtifactDir)
		if err != nil {
			return nil, err
		}
		a.store = fileStore
	}

	var onProgress pipeline.ProgressCallback
	if verbose {
		onProgress = func(event pipeline.ProgressEvent) {
			log.Printf("[%s] %s", event.State, event.Message)
		}
	}

	a.pipeline, err = pipeline.New(pipeline.Options{
		Comparator: comparator.New(invoker),
		Gauge:      gauge.New(invoker, matrix),
		Classifier: classifier.New(invoker, matrix),
		Generator:  generator.New(a.generationInvokers(ctx, client), cfg.OrgContext()),
		Extractor:  extraction.NewExtractor(transcriber),
		Store:      a.store,
		Pricing: map[llm.Provider]*llm.Config{
			llm.ProviderGemini:    llm.DefaultGeminiConfig(),
			llm.ProviderAnthropic: llm.DefaultAnthropicConfig(),
		},
		OnProgress: onProgress,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// generationInvokers builds one invoker per provider with a configured key,
// reusing the evaluation client where it matches. Generation fans out to all
// of them in parallel.
func (a *app) generationInvokers(ctx context.Context, evaluation llm.Client) []*llm.Invoker {
	var invokers []*llm.Invoker

	if a.cfg.GeminiAPIKey != "" {
		if evaluation.Provider() == llm.ProviderGemini {
			invokers = append(invokers, llm.NewInvoker(evaluation))
		} else if gemini, err := llm.NewGeminiClient(ctx, llm.DefaultGeminiConfig(), a.cfg.GeminiAPIKey); err == nil {
			a.closers = append(a.closers, func() { _ = gemini.Close() })
			invokers = append(invokers, llm.NewInvoker(gemini))
		} else {
			log.Printf("skipping gemini generation provider: %v", err)
		}
	}

	if a.cfg.AnthropicAPIKey != "" {
		if evaluation.Provider() == llm.ProviderAnthropic {
			invokers = append(invokers, llm.NewInvoker(evaluation))
		} else if anthropic, err := llm.NewAnthropicClient(llm.DefaultAnthropicConfig(), a.cfg.AnthropicAPIKey); err == nil {
			a.closers = append(a.closers, func() { _ = anthropic.Close() })
			invokers = append(invokers, llm.NewInvoker(anthropic))
		} else {
			log.Printf("skipping anthropic generation provider: %v", err)
		}
	}

	return invokers
}
