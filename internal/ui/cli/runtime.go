package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "coalesce/internal/core/app"
	"coalesce/internal/core/app/helpers"
	"coalesce/internal/core/config"
	"coalesce/internal/core/ports"
	"coalesce/internal/shared/observability"
	"coalesce/internal/ui/report"

	"github.com/google/uuid"
)

var (
	errFindings        = errors.New("findings reported")
	errHistoryDisabled = errors.New("history is disabled; set [history] enabled = true")
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &cliOptions{stdout: stdout, stderr: stderr}
	root := newRootCommand(opts)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFindings):
		return exitFindings
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func configureLogging(out io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// openApp loads configuration and builds the App. The returned path is the
// config file in use, empty when running on defaults.
func openApp(ctx context.Context, opts *cliOptions) (*coreapp.App, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("detect working directory: %w", err)
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		return nil, "", err
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return nil, "", err
	}

	a, err := coreapp.New(ctx, cfg, cwd)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("configuration loaded", "path", cfgPath, "project_root", a.Paths.ProjectRoot, "php_version", cfg.PHPVersion)
	return a, cfgPath, nil
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", path, err)
		}
		return cfg, path, nil
	}

	for _, candidate := range discoverDefaultConfig(cwd) {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cfg, err := config.Load(candidate)
		if err != nil {
			return nil, "", fmt.Errorf("load config %s: %w", candidate, err)
		}
		return cfg, candidate, nil
	}

	slog.Debug("no config file found, using defaults", "cwd", cwd)
	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) []string {
	return []string{
		filepath.Join(cwd, config.DefaultFile),
		filepath.Join(cwd, "data", "config", config.DefaultFile),
	}
}

// applyOverrides applies command-line settings that take precedence over the file.
func applyOverrides(cfg *config.Config, opts *cliOptions) error {
	if strings.TrimSpace(opts.php) == "" {
		return nil
	}
	cfg.PHPVersion = strings.TrimSpace(opts.php)
	return config.Validate(cfg)
}

// scanPaths resolves positional arguments against cwd; none means the
// configured paths.
func scanPaths(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return args
	}
	return helpers.ResolveAgainst(cwd, args)
}

func closeApp(a *coreapp.App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
}

func runScan(ctx context.Context, opts *cliOptions, args []string) error {
	a, _, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.AnalysisService().Scan(ctx, ports.ScanRequest{Paths: scanPaths(args)})
	if err != nil {
		return err
	}
	report.NewPrinter(opts.stdout, a.Paths.ProjectRoot).Findings(res)

	written, err := a.GenerateOutputs(res)
	for _, path := range written {
		fmt.Fprintf(opts.stdout, "wrote %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("generate outputs: %w", err)
	}
	if opts.failOnFindings && res.FindingCount() > 0 {
		return errFindings
	}
	return nil
}

func runFix(ctx context.Context, opts *cliOptions, args []string) error {
	a, _, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	res, err := a.AnalysisService().Fix(ctx, ports.FixRequest{Paths: scanPaths(args), DryRun: opts.dryRun})
	if err != nil {
		return err
	}

	printer := report.NewPrinter(opts.stdout, a.Paths.ProjectRoot)
	if opts.diff || opts.dryRun {
		for _, file := range res.Files {
			printer.Diff(file)
		}
	}
	printer.Fixes(res, opts.dryRun)

	var failed []error
	for _, file := range res.Files {
		if file.Err != nil {
			failed = append(failed, file.Err)
		}
	}
	return errors.Join(failed...)
}

func runWatch(ctx context.Context, opts *cliOptions, args []string) error {
	a, cfgPath, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	svc := a.AnalysisService()
	printer := report.NewPrinter(opts.stdout, a.Paths.ProjectRoot)
	paths := scanPaths(args)

	res, err := svc.Scan(ctx, ports.ScanRequest{Paths: paths})
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	printer.Findings(res)
	if _, err := a.GenerateOutputs(res); err != nil {
		slog.Error("failed to generate outputs", "error", err)
	}

	if a.Config().Observability.Enabled {
		stopServer, err := startObservability(ctx, a)
		if err != nil {
			return err
		}
		defer stopServer()
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(cfg *config.Config) {
			if err := applyOverrides(cfg, opts); err != nil {
				slog.Warn("reloaded config rejected", "error", err)
				return
			}
			if err := a.Reload(cfg); err != nil {
				slog.Warn("reloaded config rejected", "error", err)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config hot reload unavailable", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "project_root", a.Paths.ProjectRoot)
	return svc.Watch(ctx, paths, printer.Watch)
}

func startObservability(ctx context.Context, a *coreapp.App) (func(), error) {
	addr := fmt.Sprintf(":%d", a.Config().Observability.Port)
	srv := observability.NewServer(addr, coreapp.NewHealthService(a))
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("start observability server: %w", err)
	}
	slog.Info("observability server listening", "addr", srv.Addr())
	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("observability server shutdown failed", "error", err)
		}
	}, nil
}

func runHistory(ctx context.Context, opts *cliOptions, args []string) error {
	a, _, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer closeApp(a)

	store := a.History()
	if store == nil {
		return errHistoryDisabled
	}
	printer := report.NewPrinter(opts.stdout, a.Paths.ProjectRoot)

	if len(args) == 1 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		run, err := store.LoadRun(ctx, id)
		if err != nil {
			return err
		}
		printer.RunDetail(run)
		return nil
	}

	runs, err := store.ListRuns(ctx, a.Paths.ProjectRoot, opts.limit)
	if err != nil {
		return err
	}
	printer.Runs(runs)
	return nil
}
