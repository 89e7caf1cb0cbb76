package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/dealbrief/internal/broadcast"
	"github.com/jonathan/dealbrief/internal/config"
	"github.com/jonathan/dealbrief/internal/db"
	"github.com/jonathan/dealbrief/internal/llm"
	"github.com/jonathan/dealbrief/internal/pipeline"
	"github.com/jonathan/dealbrief/internal/server"
)

var (
	servePort       int
	serveConfigPath string
	serveModel      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that accepts deal-memo submissions, runs the extraction pipeline, and streams status updates over WebSockets.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to JSON config file")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Gemini model name")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Config{
		Port:        servePort,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		Model:       serveModel,
	}
	if serveConfigPath != "" {
		fileCfg, err := config.LoadConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(config.Config{Port: 8080, Model: llm.DefaultConfig().Model})
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	// The LLM client is built once here and injected; nothing below it
	// constructs provider clients on the fly.
	client, err := llm.NewGeminiClient(ctx, &llm.Config{
		Model:       cfg.Model,
		Temperature: float32(cfg.Temperature),
	}, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	broadcaster := broadcast.New()
	orchestrator := pipeline.New(database, client, broadcaster, cfg.MaxAttempts)

	srv := server.New(server.Config{Port: cfg.Port}, database, orchestrator, broadcaster)
	return srv.Start()
}
