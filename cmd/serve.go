package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newsquill/newsquill/api"
	"github.com/newsquill/newsquill/internal/chat"
	"github.com/newsquill/newsquill/internal/config"
	"github.com/newsquill/newsquill/internal/generate"
	"github.com/newsquill/newsquill/internal/retrieve"
	"github.com/newsquill/newsquill/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP chat API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	logger.Info("starting newsquill", "version", AppVersion, "backend", cfg.VectorBackend)

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

	sessions, err := session.NewRedis(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      sessionTTL(cfg),
	}, logger.With("component", "session"))
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("closing session store", "error", err)
		}
	}()

	retriever, err := retrieve.New(embedder, idx, logger.With("component", "retriever"))
	if err != nil {
		return fmt.Errorf("creating retriever: %w", err)
	}

	generator, err := generate.NewGemini(client, cfg.ModelName, logger.With("component", "generator"))
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	svc, err := chat.New(retriever, generator, sessions, cfg.TopK, logger.With("component", "chat"))
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := api.NewServer(svc, sessions.Ping, api.Config{
		Addr:          addr,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
		TrustProxy:    cfg.TrustProxy,
	}, logger.With("component", "api"))

	return server.Run(ctx)
}
