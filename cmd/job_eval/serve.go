package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-evaluator/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for evaluation, classification, generation, and run artifact access.`,
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: SERVER_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.ServerAddr
	}

	srv := server.New(server.Config{Addr: addr}, a.pipeline, a.store)
	return srv.Start()
}
