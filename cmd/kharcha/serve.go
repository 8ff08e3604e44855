package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"kharcha/internal/cli"
	apphttp "kharcha/internal/http"
	"kharcha/internal/log"
	"kharcha/internal/worker"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "Serve the JSON API to a local UI." }
func (*serveCmd) Usage() string {
	return `serve [-addr host:port]:
  Serve the ledger API on the loopback interface until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address; defaults to HOST:PORT.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	addr := c.addr
	if addr == "" {
		addr = a.cfg.Addr()
	}
	srv := apphttp.NewServer(addr, apphttp.Deps{
		Ledger:   a.repo,
		Settings: a.settings,
		ImpExp:   a.impexp,
		Gate:     a.gate,
		Logger:   a.logger,
	}, apphttp.Options{
		PageSize:   a.cfg.PageSize,
		RateLimit:  a.cfg.RateLimit,
		RateWindow: a.cfg.RateWindow,
		BackupDir:  a.cfg.BackupDir,
	})

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if a.cfg.BackupInterval > 0 {
		go worker.NewBackupWorker(a.impexp, a.cfg.BackupDir, a.cfg.BackupInterval, a.logger).Run(workerCtx)
	}

	shutdownCtx, done := cli.GracefulShutdown(a.logger, 30*time.Second, func(ctx context.Context) {
		stopWorker()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	a.logger.Info("Starting kharcha server", "addr", addr, log.FieldBackend, a.cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("Server error", log.FieldError, err, "addr", addr)
		return subcommands.ExitFailure
	}

	cli.WaitForShutdown(shutdownCtx, done)
	a.logger.Info("Server stopped gracefully")
	return subcommands.ExitSuccess
}
