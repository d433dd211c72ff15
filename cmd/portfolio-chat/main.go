package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sohae-kim/portfolio-chat/config"
	"github.com/sohae-kim/portfolio-chat/internal/builder"
	"github.com/sohae-kim/portfolio-chat/internal/guard"
	"github.com/sohae-kim/portfolio-chat/internal/provider"
	"github.com/sohae-kim/portfolio-chat/internal/retrieval"
	srv "github.com/sohae-kim/portfolio-chat/internal/server"
	"github.com/sohae-kim/portfolio-chat/internal/store"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{Use: "portfolio-chat"}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config YAML")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg)
		},
	}

	index := &cobra.Command{
		Use:   "index",
		Short: "Embed portfolio content and write the store file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			embedder, err := provider.NewOpenAIClient(provider.OpenAIConfig{
				APIKey:  cfg.Providers.OpenAI.APIKey,
				Model:   cfg.Providers.OpenAI.Model,
				Timeout: cfg.Providers.OpenAI.Timeout,
			})
			if err != nil {
				return err
			}
			b := builder.New(embedder, nil)
			return b.BuildFile(cmd.Context(), cfg.Store.ContentPath, cfg.Store.EmbeddingsPath)
		},
	}

	ask := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question from the terminal (debug aid)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			question := guard.Sanitize(args[0])
			if question == "" {
				return fmt.Errorf("question is empty after sanitisation")
			}
			return runAsk(cmd.Context(), cfg, question)
		},
	}

	root.AddCommand(serve, index, ask)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAsk(ctx context.Context, cfg *config.Config, question string) error {
	st, err := store.Load(cfg.Store.EmbeddingsPath)
	if err != nil {
		return err
	}
	embedder, err := provider.NewOpenAIClient(provider.OpenAIConfig{
		APIKey:  cfg.Providers.OpenAI.APIKey,
		Model:   cfg.Providers.OpenAI.Model,
		Timeout: cfg.Providers.OpenAI.Timeout,
	})
	if err != nil {
		return err
	}
	generator, err := provider.NewAnthropicClient(provider.AnthropicConfig{
		APIKey:      cfg.Providers.Anthropic.APIKey,
		Model:       cfg.Providers.Anthropic.Model,
		MaxTokens:   cfg.Providers.Anthropic.MaxTokens,
		Temperature: cfg.Providers.Anthropic.Temperature,
		Timeout:     cfg.Providers.Anthropic.Timeout,
	})
	if err != nil {
		return err
	}

	vec, err := embedder.Embed(ctx, question)
	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}
	results, err := retrieval.Rank(vec, st, cfg.Retrieval.TopK, cfg.Retrieval.MinScore)
	if err != nil {
		return err
	}
	contextText, refs := retrieval.Assemble(results, cfg.Retrieval.MaxContextChars)

	answer, err := generator.Generate(ctx, question, contextText)
	if err != nil {
		return fmt.Errorf("generate answer: %w", err)
	}

	fmt.Println(answer)
	if len(results) > 0 {
		fmt.Println()
		for _, r := range results {
			fmt.Printf("  %.3f  %s\n", r.Score, r.Chunk.Title)
		}
	}
	for _, ref := range refs {
		fmt.Printf("  -> %s#%s\n", cfg.Server.SiteBaseURL, ref.ID)
	}
	return nil
}
