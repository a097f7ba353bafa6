// Command relay runs the Discord → LLM conversational relay. One core, four
// adapters: a gateway event loop (serve), a REST polling loop (poll), a
// single poll cycle for scheduled/serverless invocation (once), and a ledger
// printout (stats).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/raphiebot/go-discord-relay/internal/config"
	"github.com/raphiebot/go-discord-relay/internal/discord"
	httpapi "github.com/raphiebot/go-discord-relay/internal/http"
	"github.com/raphiebot/go-discord-relay/internal/observability"
	"github.com/raphiebot/go-discord-relay/internal/openrouter"
	"github.com/raphiebot/go-discord-relay/internal/repo"
	"github.com/raphiebot/go-discord-relay/internal/services"
	"github.com/raphiebot/go-discord-relay/internal/sysutil"
)

const version = "1.0.0"

// app bundles everything a subcommand needs after bootstrap.
type app struct {
	cfg       config.Config
	db        *gorm.DB
	client    *discord.Client
	responder *services.Responder
	shutdown  func(context.Context) error
}

// ledgerAdapter exposes the repo's usage functions through the engine's
// Ledger interface.
type ledgerAdapter struct{ db *gorm.DB }

func (l ledgerAdapter) GetUsage(ctx context.Context, modelID string) (int, error) {
	return repo.GetUsage(ctx, l.db, modelID)
}

func (l ledgerAdapter) IncrementUsage(ctx context.Context, modelID string, paid bool) error {
	return repo.IncrementUsage(ctx, l.db, modelID, paid)
}

// bootstrap loads configuration and wires the core. Configuration errors are
// the only fatal class; everything downstream handles failures locally.
func bootstrap(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		sysutil.UsePrettyLogs()
	}

	shutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("gorm tracing: %w", err)
		}
	}

	tiers := services.DefaultTiers()
	engine := services.NewEngine(
		openrouter.New(cfg.OpenRouterBase, cfg.OpenRouterAPIKey),
		ledgerAdapter{db: db},
		tiers,
	)
	engine.MaxAttempts = cfg.MaxAttempts
	engine.AttemptTimeout = cfg.AttemptTimeout
	engine.RetryDelay = cfg.RetryDelay
	engine.MaxTokens = cfg.MaxTokens
	engine.Temperature = cfg.Temperature

	client := discord.NewClient(cfg.DiscordToken)
	responder := &services.Responder{
		DB:           db,
		Admission:    services.NewAdmission(cfg.TargetChannel, cfg.MinContentLength, cfg.Cooldown),
		Engine:       engine,
		Transport:    client,
		Instructions: config.LoadInstructions(cfg.InstructionsPath),
		ContextLimit: cfg.ContextLimit,
		Retention:    cfg.Retention,
		MaxSentences: cfg.MaxSentences,
		MaxWords:     cfg.MaxWords,
		TypingDelay:  cfg.TypingDelay,
	}

	if stats, err := repo.GetUsageStats(ctx, db, tiers); err == nil {
		log.Info().
			Int("free", stats.FreeCount).
			Int("paid", stats.PaidCount).
			Float64("cost", stats.EstimatedCost).
			Msg("daily usage")
	}

	return &app{
		cfg:       cfg,
		db:        db,
		client:    client,
		responder: responder,
		shutdown:  shutdown,
	}, nil
}

// startHTTP launches the operational HTTP surface in the background. It must
// answer probes even while the processing loop is mid-cycle.
func (a *app) startHTTP() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, services.DefaultTiers(), a.cfg)
	srv := httpapi.NewServer(r, a.cfg.Port)
	go func() {
		log.Info().Str("port", a.cfg.Port).Msg("health server listening")
		if err := srv.ListenAndServe(); err != nil {
			log.Error().Err(err).Msg("health server stopped")
		}
	}()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		log.Info().Msg("shutting down")
		cancel()
	}()
	return ctx, cancel
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reactive gateway event loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.shutdown(context.Background()) }()
			a.startHTTP()

			gw := discord.NewGateway(a.cfg.DiscordToken, func(msg discord.Message) {
				a.responder.HandleMessage(ctx, msg)
			})
			gw.OnReady = a.responder.SetSelf

			log.Info().Int64("channel", a.cfg.TargetChannel).Msg("gateway relay starting")
			if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run the REST polling loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.shutdown(context.Background()) }()
			a.startHTTP()

			p := services.NewPoller(a.client, a.responder, a.cfg.TargetChannel)
			log.Info().
				Int64("channel", a.cfg.TargetChannel).
				Dur("interval", a.cfg.CheckInterval).
				Msg("polling relay starting")
			p.RunOnce(ctx)
			if err := p.Run(ctx, a.cfg.CheckInterval); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and exit (for external schedulers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.shutdown(context.Background()) }()

			services.NewPoller(a.client, a.responder, a.cfg.TargetChannel).RunOnce(ctx)
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print today's usage ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.shutdown(context.Background()) }()

			stats, err := repo.GetUsageStats(ctx, a.db, services.DefaultTiers())
			if err != nil {
				return err
			}
			fmt.Printf("free: %d\npaid: %d\nestimated cost: $%.4f\n",
				stats.FreeCount, stats.PaidCount, stats.EstimatedCost)
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "relay",
		Short:         "Discord channel relay to a hosted completion API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPollCmd(), newOnceCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}
