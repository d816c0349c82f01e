package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newsquill/newsquill/internal/config"
	"github.com/newsquill/newsquill/internal/generate"
	"github.com/newsquill/newsquill/internal/retrieve"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the terminal",
	Long: `Ask retrieves the best-matching indexed chunks for the question and
prints a grounded answer. No session is created and nothing is stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger()

	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	idx, closeIndex, err := newIndex(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	defer closeIndex()

	retriever, err := retrieve.New(embedder, idx, logger.With("component", "retriever"))
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}
	generator, err := generate.NewGemini(client, cfg.ModelName, logger.With("component", "generator"))
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	chunks, err := retriever.Retrieve(ctx, question, cfg.TopK)
	if err != nil {
		return fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := generator.Generate(ctx, question, chunks)
	if err != nil {
		return fmt.Errorf("generating answer: %w", err)
	}

	fmt.Println(answer)
	return nil
}
