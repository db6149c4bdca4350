// Command computovoce is the main entry point for the ComputoVoce estimate
// server: spoken site-surveys in, structured bills of quantities out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/stimaworks/computovoce/internal/analysis"
	"github.com/stimaworks/computovoce/internal/config"
	"github.com/stimaworks/computovoce/internal/filter"
	"github.com/stimaworks/computovoce/internal/health"
	"github.com/stimaworks/computovoce/internal/observe"
	"github.com/stimaworks/computovoce/internal/resilience"
	"github.com/stimaworks/computovoce/internal/server"
	"github.com/stimaworks/computovoce/pkg/provider/llm"
	"github.com/stimaworks/computovoce/pkg/provider/llm/anyllm"
	"github.com/stimaworks/computovoce/pkg/provider/stt"
	sttopenai "github.com/stimaworks/computovoce/pkg/provider/stt/openai"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "computovoce: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "computovoce: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("computovoce starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Observability ─────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "computovoce",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Completion providers ──────────────────────────────────────────────────
	primary, err := buildCompletion(cfg.Providers.Completion)
	if err != nil {
		slog.Error("failed to create completion provider",
			"name", cfg.Providers.Completion.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "completion", "name", cfg.Providers.Completion.Name, "model", cfg.Providers.Completion.Model)

	chain := resilience.NewChain(
		analysis.Completion{Name: cfg.Providers.Completion.Name, Provider: primary},
		cfg.Providers.Completion.Name,
		resilience.BreakerConfig{},
	)
	if entry := cfg.Providers.FallbackCompletion; entry.Name != "" {
		fallback, err := buildCompletion(entry)
		if err != nil {
			slog.Error("failed to create fallback completion provider", "name", entry.Name, "err", err)
			return 1
		}
		chain.AddFallback(entry.Name, analysis.Completion{Name: entry.Name, Provider: fallback})
		slog.Info("provider created", "kind", "fallback_completion", "name", entry.Name, "model", entry.Model)
	}

	// ── Expansion provider (optional) ─────────────────────────────────────────
	var expander *analysis.Expander
	if entry := cfg.Providers.Expansion; entry.Name != "" {
		p, err := buildCompletion(entry)
		if err != nil {
			slog.Error("failed to create expansion provider", "name", entry.Name, "err", err)
			return 1
		}
		expander = analysis.NewExpander(p, entry.Name, metrics)
		slog.Info("provider created", "kind", "expansion", "name", entry.Name, "model", entry.Model)
	}

	// ── STT provider (optional) ───────────────────────────────────────────────
	var sttProvider stt.Provider
	if entry := cfg.Providers.STT; entry.Name != "" {
		sttProvider, err = buildSTT(entry)
		if err != nil {
			slog.Error("failed to create stt provider", "name", entry.Name, "err", err)
			return 1
		}
		slog.Info("provider created", "kind", "stt", "name", entry.Name, "model", entry.Model)
	}

	// ── Filter engine + runner ────────────────────────────────────────────────
	engine := filter.New(filter.Config{
		MinKeywordLength:  cfg.Filter.MinKeywordLength,
		ExpandedMinLength: cfg.Filter.ExpandedMinLength,
		TopPerKeyword:     cfg.Filter.TopPerKeyword,
		MaxRows:           cfg.Filter.MaxRows,
		MaxFieldLength:    cfg.Filter.MaxFieldLength,
		TransferBudget:    cfg.Filter.TransferBudget,
		ExtraStopWords:    cfg.Filter.ExtraStopWords,
	})
	runner := filter.NewRunner(engine, filter.RunnerConfig{
		MaxConcurrent: cfg.Filter.MaxConcurrent,
		Timeout:       cfg.Filter.WorkerTimeout,
	})

	svc := analysis.NewService(chain, expander, engine, runner, metrics)

	// ── HTTP server ───────────────────────────────────────────────────────────
	opts := []server.Option{
		server.WithHealthCheckers(health.Checker{
			Name: "completion",
			Check: func(context.Context) error {
				// Readiness degrades when every completion breaker is open.
				if chain.AllOpen() {
					return errors.New("all completion providers unavailable")
				}
				return nil
			},
		}),
	}
	if expander != nil {
		opts = append(opts, server.WithExpander(expander))
	}
	if sttProvider != nil {
		opts = append(opts, server.WithSTT(sttProvider, cfg.Providers.STT.Name))
	}
	srv := server.New(cfg.Server, svc, metrics, opts...)

	slog.Info("server ready — press Ctrl+C to shut down")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// buildCompletion constructs an any-llm backed completion provider from a
// config entry. Ollama runs locally and takes its address via BaseURL; the
// hosted providers take an API key plus optional BaseURL override.
func buildCompletion(entry config.ProviderEntry) (llm.Provider, error) {
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Name, entry.Model, opts...)
}

// buildSTT constructs the transcription provider. Both supported names map to
// the OpenAI-compatible audio transcription API; "whisper" is the
// self-hosted variant reached via BaseURL.
func buildSTT(entry config.ProviderEntry) (stt.Provider, error) {
	var opts []sttopenai.Option
	if entry.Model != "" {
		opts = append(opts, sttopenai.WithModel(entry.Model))
	}
	if entry.BaseURL != "" {
		opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
	}
	return sttopenai.New(entry.APIKey, opts...)
}
