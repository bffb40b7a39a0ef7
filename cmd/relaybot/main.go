package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"relaybot.app/relay/common/id"
	"relaybot.app/relay/common/llm"
	"relaybot.app/relay/common/logger"
	"relaybot.app/relay/common/otel"
	"relaybot.app/relay/core/config"
	"relaybot.app/relay/internal/bot"
	"relaybot.app/relay/internal/discord"
	"relaybot.app/relay/internal/generation"
	"relaybot.app/relay/internal/http/middleware"
	httprouter "relaybot.app/relay/internal/http/router"
	"relaybot.app/relay/internal/prompt"
	"relaybot.app/relay/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		port    string
	)

	cmd := &cobra.Command{
		Use:           "relaybot",
		Short:         "Discord bot that answers mentions with Gemini",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(envFile)
			if err != nil {
				slog.ErrorContext(cmd.Context(), "failed to load config", "error", err)
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "load environment variables from this file")
	cmd.Flags().StringVar(&port, "port", "", "keep-alive HTTP port (overrides PORT)")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	fmt.Printf("%s\n", banner)

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet; OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		return err
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relaybot starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		return err
	}

	orchestrator, err := newOrchestrator(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm clients", "error", err)
		return err
	}
	for _, m := range orchestrator.Models() {
		slog.InfoContext(ctx, "model configured", "tier", m.Tier.String(), "model", m.Name, "provider", cfg.LLM.Provider)
	}

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create discord session", "error", err)
		return err
	}

	handler := bot.NewHandler(
		discord.NewMessenger(session),
		orchestrator,
		prompt.NewBuilder(cfg.Generation.SystemInstruction),
		bot.Config{UnwrapJSON: cfg.Reply.UnwrapJSON},
	)
	dispatcher := worker.New(handler, worker.Config{QueueSize: cfg.Worker.QueueSize})
	gateway := discord.New(session, dispatcher)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		return dispatcher.Run(ctx)
	})

	g.Go(func() error {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := gateway.Open(); err != nil {
			return err
		}
		slog.InfoContext(ctx, "discord gateway connected")
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.InfoContext(ctx, "shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := gateway.Close(); err != nil {
			slog.ErrorContext(shutdownCtx, "discord session close error", "error", err)
		}

		drained := make(chan struct{})
		go func() {
			dispatcher.Stop()
			close(drained)
		}()
		select {
		case <-drained:
			slog.InfoContext(shutdownCtx, "in-flight mentions drained")
		case <-shutdownCtx.Done():
			slog.WarnContext(shutdownCtx, "shutdown timeout reached with mentions still in flight")
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
		}

		if telemetry != nil {
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
			}
		}

		slog.InfoContext(shutdownCtx, "shutdown complete")
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "relaybot stopped with error", "error", err)
		return err
	}
	return nil
}

func newOrchestrator(ctx context.Context, cfg config.Config) (*generation.Orchestrator, error) {
	base := llm.Config{
		Provider:         cfg.LLM.Provider,
		APIKey:           cfg.LLM.APIKey,
		BaseURL:          cfg.LLM.BaseURL,
		MaxTokens:        cfg.LLM.MaxTokens,
		StructuredOutput: cfg.LLM.StructuredOutput,
	}

	primaryCfg := base
	primaryCfg.Model = cfg.LLM.PrimaryModel
	primary, err := llm.New(ctx, primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("primary model %s: %w", primaryCfg.Model, err)
	}

	secondaryCfg := base
	secondaryCfg.Model = cfg.LLM.SecondaryModel
	secondary, err := llm.New(ctx, secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("secondary model %s: %w", secondaryCfg.Model, err)
	}

	return generation.NewOrchestrator(primary, secondary, generation.RetryPolicy{
		MaxAttempts: cfg.Generation.MaxAttempts,
		Delay:       cfg.Generation.RetryDelay,
	}), nil
}

func setupRouter(cfg config.Config) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger("/", "/health"))

	httprouter.SetupRoutes(router)

	return router
}

const banner = `
██████╗ ███████╗██╗      █████╗ ██╗   ██╗██████╗  ██████╗ ████████╗
██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝██╔══██╗██╔═══██╗╚══██╔══╝
██████╔╝█████╗  ██║     ███████║ ╚████╔╝ ██████╔╝██║   ██║   ██║   
██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝  ██╔══██╗██║   ██║   ██║   
██║  ██║███████╗███████╗██║  ██║   ██║   ██████╔╝╚██████╔╝   ██║   
╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝   ╚═════╝  ╚═════╝    ╚═╝   
`
