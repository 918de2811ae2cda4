package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfloor-terminal/internal/config"
	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/service/efficiency"
	generate_excel "shopfloor-terminal/internal/service/generate-excel"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/service/jobs"
	"shopfloor-terminal/internal/service/ledger"
	"shopfloor-terminal/internal/service/reject"
	"shopfloor-terminal/internal/service/terminal"
	"shopfloor-terminal/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env)

	storage, err := mysql.New(*cfg, log)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	if cfg.Migrate {
		if err := storage.Migrate(log); err != nil {
			log.Error("failed to migrate db", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	mailer, err := notify.NewMailer(*cfg, log)
	if err != nil {
		log.Error("failed to create mailer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := newServices(log, storage, mailer)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + max(cfg.RequestTimeout, cfg.SlowRequestTimeout),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server started", slog.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

type services struct {
	identity   *identity.Service
	admin      *identity.Admin
	jobs       *jobs.Service
	ledger     *ledger.Ledger
	efficiency *efficiency.Logger
	rejects    *reject.Service
	machine    *terminal.Machine
	report     *generate_excel.GenerateExcelService
}

func newServices(log *slog.Logger, storage *mysql.Storage, mailer *notify.Mailer) services {
	ident := identity.NewService(log, storage, storage)
	jobSvc := jobs.NewService(log, storage, mailer)
	ldg := ledger.New(log, storage)
	eff := efficiency.NewLogger(log, storage)
	rej := reject.NewService(log, storage, jobSvc, ident, mailer)

	return services{
		identity:   ident,
		admin:      identity.NewAdmin(log, storage),
		jobs:       jobSvc,
		ledger:     ldg,
		efficiency: eff,
		rejects:    rej,
		machine: terminal.NewMachine(log, terminal.Deps{
			Auth:       ident,
			Jobs:       jobSvc,
			Ledger:     ldg,
			Efficiency: eff,
			Rejects:    rej,
		}),
		report: generate_excel.NewGenerateService(log, storage),
	}
}
