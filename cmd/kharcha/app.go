package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"kharcha/internal/backend"
	"kharcha/internal/cli"
	"kharcha/internal/config"
	"kharcha/internal/core"
	"kharcha/internal/gate"
	"kharcha/internal/impexp"
	"kharcha/internal/ledger"
	"kharcha/internal/log"
	"kharcha/internal/report"
	"kharcha/internal/settings"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var verbose = flag.Bool("v", false, "Log at LOG_LEVEL instead of warnings only.")

// errUsage marks an error caused by bad arguments.
var errUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// app is everything a command needs, opened from the environment.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	backend  *backend.BackendResult
	repo     *ledger.Repository
	settings *settings.Registry
	impexp   *impexp.Service
	gate     *gate.Gate
}

func openApp(ctx context.Context, logLevel string) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := cli.SetupLogger(logLevel)

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	repo := ledger.NewRepository(res.Ledger, logger)
	return &app{
		cfg:      cfg,
		logger:   logger,
		backend:  res,
		repo:     repo,
		settings: settings.NewRegistry(repo, logger),
		impexp:   impexp.NewService(repo, logger),
		gate:     gate.New(res.Users, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warn("Closing backend failed", log.FieldError, err)
	}
}

// run opens the app, calls fn and maps its error onto an exit status.
func run(ctx context.Context, fn func(context.Context, *app) error) subcommands.ExitStatus {
	level := "warn"
	if *verbose {
		level = ""
	}
	a, err := openApp(ctx, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// formatter uses the currency symbol stored in the ledger.
func (a *app) formatter(ctx context.Context) report.Formatter {
	doc, err := a.repo.Snapshot(ctx)
	if err != nil {
		return report.NewFormatter("")
	}
	return report.NewFormatter(doc.Custom.Currency)
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func (a *app) printMarkdown(md string) {
	out, err := report.Render(md, a.cfg.RenderStyle, a.cfg.RenderWidth)
	if err != nil {
		a.logger.Debug("Rendering failed", log.FieldError, err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// currentMonth returns YYYY-MM of today.
func currentMonth() string {
	return core.Today().Month()
}
