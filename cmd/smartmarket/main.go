package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/smartmarket/api"
	"github.com/aluiziolira/smartmarket/auth"
	"github.com/aluiziolira/smartmarket/cli"
	"github.com/aluiziolira/smartmarket/config"
	"github.com/aluiziolira/smartmarket/filter"
	"github.com/aluiziolira/smartmarket/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
		os.Exit(1)
	}

	analysisURL := flag.String("analysis-url", cfg.AnalysisBaseURL, "Analysis service base URL")
	persistenceURL := flag.String("persistence-url", cfg.PersistenceBaseURL, "Persistence service base URL")
	withAnalysis := flag.Bool("with-analysis", cfg.WithAnalysis, "Use the *_with_analysis endpoints")
	timeout := flag.Duration("timeout", cfg.Timeout, "Timeout for a whole search cycle")
	maxPages := flag.Int("pages", cfg.MaxPages, "Maximum listing pages per search")
	sendPacing := flag.Bool("pacing", cfg.SendPacing, "Forward crawl pacing to the analysis service")
	tokenDir := flag.String("token-dir", cfg.TokenDir, "Directory holding the remembered token")
	outputFormat := flag.String("format", cfg.OutputFormat, "Default export format: csv, json, or dual")
	verbose := flag.Bool("v", cfg.Verbose, "Enable verbose logging")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")

	flag.Parse()

	cfg.AnalysisBaseURL = *analysisURL
	cfg.PersistenceBaseURL = *persistenceURL
	cfg.WithAnalysis = *withAnalysis
	cfg.Timeout = *timeout
	cfg.MaxPages = *maxPages
	cfg.SendPacing = *sendPacing
	cfg.TokenDir = *tokenDir
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.Verbose = *verbose
	cfg.MetricsAddr = *metricsAddr

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	metrics := api.NewMetrics()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	analysis := api.NewAnalysisClient(cfg.AnalysisBaseURL, cfg.Timeout, cfg.WithAnalysis, api.WithMetrics(metrics))
	persistence := api.NewPersistenceClient(cfg.PersistenceBaseURL, cfg.Timeout, api.WithMetrics(metrics))

	session := auth.NewManager(persistence,
		auth.NewFileTokenStore(cfg.TokenDir),
		auth.NewMemoryTokenStore(),
		append(auth.OptionsFromConfig(cfg), auth.WithMetrics(metrics))...,
	)
	if state := session.Hydrate(); state == auth.StateAuthenticated {
		slog.Info("session restored", slog.String("persist", string(session.Snapshot().PersistMode)))
	}

	orch := search.New(analysis, persistence, session,
		append(search.OptionsFromConfig(cfg), search.WithMetrics(metrics))...,
	)
	view := filter.New()
	orch.OnDataset(view.SetDataset)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "smartmarket> ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    cli.NewCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		slog.Error("initialising terminal", slog.Any("error", err))
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), "SmartMarket console. Type 'help' for commands.")
	console := cli.NewConsole(rl, rl.Stdout(), cfg, session, orch, view)
	runErr := console.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if runErr != nil {
		slog.Error("console failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

// newLogger writes to stderr so log lines stay out of the console output.
func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
