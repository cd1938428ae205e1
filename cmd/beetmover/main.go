package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/beetmover/internal/artifact"
	"git.home.luguber.info/inful/beetmover/internal/config"
	"git.home.luguber.info/inful/beetmover/internal/errors"
	"git.home.luguber.info/inful/beetmover/internal/logfields"
	"git.home.luguber.info/inful/beetmover/internal/manifest"
	"git.home.luguber.info/inful/beetmover/internal/metrics"
	"git.home.luguber.info/inful/beetmover/internal/mover"
	"git.home.luguber.info/inful/beetmover/internal/observability"
	"git.home.luguber.info/inful/beetmover/internal/retry"
	"git.home.luguber.info/inful/beetmover/internal/signer"
	"git.home.luguber.info/inful/beetmover/internal/task"
	"git.home.luguber.info/inful/beetmover/internal/transfer"
	"git.home.luguber.info/inful/beetmover/internal/version"
	"git.home.luguber.info/inful/beetmover/internal/workspace"
)

var CLI struct {
	Config  string `arg:"" help:"Configuration file path"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("beetmover"),
		kong.Description("Move build artifacts from staging to permanent storage per a copy manifest."),
		kong.Exit(func(int) { os.Exit(errors.ExitUsage) }),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		// config failures happen before logging is configured; use the default handler
		adapter := errors.NewCLIErrorAdapter(CLI.Verbose, nil)
		os.Exit(adapter.Report(err))
	}

	setupLogging(cfg, CLI.Verbose)
	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	code, err := run(ctx, cfg)
	if err != nil {
		os.Exit(adapter.Report(err))
	}
	os.Exit(code)
}

func setupLogging(cfg *config.Config, verbose bool) {
	level := config.NormalizeLogLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.NormalizeLogFormat(cfg.Logging.Format) == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// run executes one copy run. The returned int is the process exit code when
// err is nil.
func run(ctx context.Context, cfg *config.Config) (int, error) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	observability.InfoContext(ctx, "Starting beetmover",
		slog.String("version", version.Version), logfields.RunID(runID))

	recorder := setupMetrics(cfg)

	ws := workspace.NewPersistentManager(cfg.WorkDir)
	if err := ws.Create(); err != nil {
		return 0, errors.WorkspaceError("create", err)
	}

	t, err := task.Load(ws.Path())
	if err != nil {
		return 0, err
	}

	m, err := manifest.Resolve(ws.Path(), t)
	if err != nil {
		return 0, err
	}
	observability.InfoContext(ctx, "Manifest resolved",
		slog.Int("entries", m.EntryCount()),
		slog.Int("dependencies", len(t.Dependencies)))

	var checksums map[string]task.Digest
	if cfg.VerifyChecksums {
		checksums = t.Payload.Checksums
	}

	// one connection pool shared by every download and upload
	httpClient := &http.Client{}
	policy := retry.NewPolicy(cfg.Retry)

	orchestrator := mover.New(mover.Options{
		Transfer:    transfer.NewClient(httpClient, policy, recorder),
		Signer:      signer.New(cfg.S3, cfg.URLExpiry),
		Validator:   artifact.NewValidator(cfg.ArtifactRoot, t.Dependencies),
		Workspace:   ws,
		Recorder:    recorder,
		Concurrency: cfg.Concurrency,
		Checksums:   checksums,
	})

	report := orchestrator.Run(ctx, m)
	if !report.OK() {
		return errors.ExitJobsFailed, nil
	}
	observability.InfoContext(ctx, "Success")
	return errors.ExitSuccess, nil
}

func setupMetrics(cfg *config.Config) metrics.Recorder {
	if !cfg.Metrics.Enabled {
		return metrics.NoopRecorder{}
	}
	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
		if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
			slog.Warn("Metrics endpoint failed", logfields.Error(err))
		}
	}()
	return recorder
}
