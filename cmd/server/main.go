package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/storage/local"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/codex-hr-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env は任意です。
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer dbPool.Close()

	store, err := local.New(cfg.Storage.Root, cfg.Storage.URLPrefix)
	if err != nil {
		return fmt.Errorf("initialize file store: %w", err)
	}

	txManager := pg.NewTransactionManager(dbPool)

	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(dbPool), store, nil, txManager, logger)
	timesheetSvc := timesheet.NewService(postgres.NewTimesheetRepository(dbPool), nil, txManager)

	app := handler.NewApp(handler.AppConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		StaticRoot:   store.Root(),
		StaticPrefix: store.URLPrefix(),
	}, employeeSvc, timesheetSvc, logger)

	srv := server.New(cfg.Server, app, logger)

	logger.Info(ctx, "hr server starting",
		"listen_addr", cfg.Server.ListenAddr,
		"health_addr", cfg.Server.HealthAddr,
		"storage_root", store.Root(),
	)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}

	logger.Info(context.Background(), "hr server stopped")
	return nil
}
