// Package cli holds the cobra commands: the interactive question loop, the
// demo preset, the HTTP server, the offline transcript generators, and the
// evidence snipping utility.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/daycare-qa/server/internal/core"
	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/conversation"
	"github.com/daycare-qa/server/internal/qa/evidence"
	"github.com/daycare-qa/server/internal/qa/graph"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
	pkgredis "github.com/daycare-qa/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	SessionTTL  string `envconfig:"SESSION_TTL" default:"24h"`

	// Infrastructure. Redis is optional; without it the server keeps
	// sessions in memory.
	Redis pkgredis.Config

	LLM   model.LLMConfig
	Paths model.PathsConfig

	Answer model.AnswerConfig
	Retry  model.RetryConfig
	Demo   model.DemoConfig
}

func loadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("No .env file loaded")
	}
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})
	return &cfg, nil
}

// App is the wired dependency set shared by the conversational commands.
type App struct {
	Config    *AppConfig
	Catalog   *catalog.Catalog
	Model     llm.Model
	Days      *transcript.DayStore
	Children  *transcript.ChildStore
	Runner    *graph.Runner
	Extractor *evidence.Extractor
	Sessions  model.ConversationRepository

	closers []func() error
}

func (a *App) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			logx.Warn().Err(err).Msg("Close failed")
		}
	}
}

func buildApp(ctx context.Context, cfg *AppConfig) (*App, error) {
	cat, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		return nil, err
	}

	m, err := llm.NewGemini(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	days := transcript.NewDayStore(cfg.Paths.TranscriptDir)
	children := transcript.NewChildStore(cfg.Paths.ChildDir)

	runner, err := graph.New(ctx, &graph.Config{
		Model:    m,
		Catalog:  cat,
		Days:     days,
		Children: children,
		Answer:   cfg.Answer,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Catalog:  cat,
		Model:    m,
		Days:     days,
		Children: children,
		Runner:   runner,
	}

	// Conversation sessions go to Redis when configured, memory otherwise.
	if cfg.Redis.Enabled() {
		ttl, err := time.ParseDuration(cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", cfg.SessionTTL, err)
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, fmt.Errorf("initialise Redis client: %w", err)
		}
		app.closers = append(app.closers, rdb.Close)
		app.Sessions = conversation.NewRedisRepository(rdb, ttl)
		logx.Info().Msg("Using Redis conversation store")
	} else {
		app.Sessions = conversation.NewMemoryRepository()
	}

	// The evidence route is optional at runtime. When remote storage
	// credentials are absent the extractor reports the failure in its
	// message instead of blocking startup.
	var dl evidence.Downloader
	if rd, err := evidence.NewRemoteDownloader(ctx); err != nil {
		logx.Warn().Err(err).Msg("Remote downloader unavailable; evidence extraction will fail")
		dl = unavailableDownloader{err: err}
	} else {
		dl = rd
	}
	app.Extractor = &evidence.Extractor{
		Catalog:  cat,
		Children: children,
		Snipper:  evidence.NewSnipper(dl, cfg.Paths, cfg.Answer, cfg.Retry),
	}

	return app, nil
}

type unavailableDownloader struct{ err error }

func (d unavailableDownloader) Fetch(ctx context.Context, remoteURI, destPath string) error {
	return fmt.Errorf("downloader unavailable: %w", d.err)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "daycare-qa",
		Short:         "Answer parents' questions about their child's day from classroom videos",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newAskCmd(),
		newDemoCmd(),
		newServeCmd(),
		newGenTranscriptCmd(),
		newGenChildTranscriptsCmd(),
		newGenChildFromImageCmd(),
		newSnipEvidenceCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
