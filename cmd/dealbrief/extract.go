package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/dealbrief/internal/extraction"
	"github.com/jonathan/dealbrief/internal/llm"
)

var (
	extractModel    string
	extractAttempts int
)

var extractCmd = &cobra.Command{
	Use:   "extract <memo-file>",
	Short: "Run a one-shot extraction against a memo text file",
	Long:  `Extract structured deal fields from a memo text file and print the validated JSON. Runs the same validation and repair loop as the server, without a database.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractModel, "model", llm.DefaultConfig().Model, "Gemini model name")
	extractCmd.Flags().IntVar(&extractAttempts, "max-attempts", 2, "Validation attempts (initial + repairs)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, args []string) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	rawText, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read memo file: %w", err)
	}

	ctx := context.Background()
	client, err := llm.NewGeminiClient(ctx, &llm.Config{Model: extractModel, Temperature: 0.1}, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	response, err := client.GenerateJSON(ctx, llm.BuildExtractionPrompt(llm.DealSchema(), string(rawText)))
	if err != nil {
		return fmt.Errorf("extraction call failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < extractAttempts; attempt++ {
		extracted, parseErr := extraction.Parse(response)
		if parseErr == nil {
			out, err := json.MarshalIndent(extracted, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		lastErr = parseErr
		fmt.Fprintf(os.Stderr, "attempt %d/%d invalid: %v\n", attempt+1, extractAttempts, parseErr)

		if attempt == extractAttempts-1 {
			break
		}
		response, err = client.GenerateJSON(ctx, llm.BuildRepairPrompt(response, parseErr.Error()))
		if err != nil {
			return fmt.Errorf("repair call failed: %w", err)
		}
	}

	return fmt.Errorf("extraction did not produce valid output: %w", lastErr)
}
