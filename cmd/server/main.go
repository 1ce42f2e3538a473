package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/profilegen/internal/a2a"
	"github.com/BerylCAtieno/profilegen/internal/api"
	"github.com/BerylCAtieno/profilegen/internal/config"
	"github.com/BerylCAtieno/profilegen/internal/gateway"
	"github.com/BerylCAtieno/profilegen/internal/observability"
	"github.com/BerylCAtieno/profilegen/internal/pipeline"
	"github.com/BerylCAtieno/profilegen/internal/profiler"
	"github.com/gin-gonic/gin"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := observability.InitLogger(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer observability.Log.Sync()
	logger := observability.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTELEnabled, cfg.OTELEndpoint)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	gatewayClient := gateway.New(gateway.Config{
		URL:        cfg.GatewayURL,
		APIKey:     cfg.GatewayAPIKey,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
	})

	var text pipeline.TextGenerator = gatewayClient
	if cfg.TextProvider == config.ProviderGemini {
		geminiClient, err := profiler.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("Failed to create Gemini client", zap.Error(err))
		}
		defer geminiClient.Close()
		text = geminiClient
	}

	generator := pipeline.New(text, gatewayClient, pipeline.Options{
		TextTimeout:      cfg.TextTimeout,
		ImageTimeout:     cfg.ImageTimeout,
		ImageConcurrency: cfg.ImageConcurrency,
	})

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewProfileHandler(generator), api.RouterConfig{
		MetricsEnabled: cfg.MetricsEnabled,
	})

	a2aHandler := a2a.NewA2AHandler(generator, cfg.BaseURL())
	router.GET(a2a.AgentCardPath, a2aHandler.ServeAgentCard)
	router.POST(a2a.ProfilerPath, a2aHandler.HandleProfiler)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Profile generator starting",
			zap.String("addr", srv.Addr),
			zap.String("text_provider", cfg.TextProvider),
			zap.String("agent_card", cfg.BaseURL()+a2a.AgentCardPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	// Generation can take a while; give in-flight requests a chance to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
