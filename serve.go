package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apphttp "github.com/satriahrh/diet-coach/adapters/http"
	"github.com/satriahrh/diet-coach/adapters/hasher"
	"github.com/satriahrh/diet-coach/adapters/llm"
	"github.com/satriahrh/diet-coach/adapters/message_broker"
	"github.com/satriahrh/diet-coach/adapters/storage"
	"github.com/satriahrh/diet-coach/adapters/websocket"
	"github.com/satriahrh/diet-coach/usecase"
	"github.com/satriahrh/diet-coach/utils/log"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, SSE chat proxy and WebSocket push server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address (defaults to :8080).")
	_ = settings.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(parent context.Context) error {
	cfg, err := loadConfig(settings)
	if err != nil {
		return err
	}
	if err := cfg.RequireServe(); err != nil {
		return err
	}
	logger := log.With(zap.String("component", "serve"))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(storageConfig(cfg.DB))
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	streamCfg := llm.StreamConfig{
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		APIKey:  cfg.Gemini.APIKey,
		Persona: cfg.Gemini.Persona,
		Retry:   retryPolicy(cfg.Gemini.Retry),
	}
	upstream := &http.Client{}
	streamer := llm.NewGeminiStreamer(streamCfg, upstream)
	gemini, err := llm.NewGeminiClient(ctx, streamCfg, upstream)
	if err != nil {
		return err
	}

	foodRepo := storage.NewFoodNutritionRepository(db)
	members := usecase.NewMemberService(storage.NewMemberRepository(db), hasher.New(cfg.Auth.BcryptCost))
	foods := usecase.NewFoodService(foodRepo)
	records := usecase.NewFoodRecordService(storage.NewFoodRecordRepository(db), foodRepo, broker)
	advice := usecase.NewAdviceService(streamer, gemini, records)

	wsServer := websocket.NewServer(broker, nil)
	auth := apphttp.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.CookieName)
	handler := apphttp.NewHandler(members, foods, records, advice, auth, wsServer.GetHub())
	e := apphttp.NewRouter(apphttp.RouterConfig{
		RateLimit:    cfg.Server.RateLimit,
		BodyLimit:    cfg.Server.BodyLimit,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, handler, wsServer.Handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("model", cfg.Gemini.Model))
		errCh <- e.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
