// Package handler は HR API を fiber 上に公開します。
package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
)

// AppConfig は fiber アプリケーションの構成です。
type AppConfig struct {
	BodyLimit int
	// StaticRoot と StaticPrefix が設定されていれば添付ファイルを配信します。
	StaticRoot   string
	StaticPrefix string
}

// NewApp はミドルウェアとルーティングを組み込んだ fiber アプリケーションを構築します。
func NewApp(cfg AppConfig, employees employee.UseCase, timesheets timesheet.UseCase, logger logging.Logger) *fiber.App {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With("component", "http")

	app := fiber.New(fiber.Config{
		AppName:               "hr",
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          ErrorHandler(logger),
	})

	app.Use(RequestLogger(logger))

	if cfg.StaticRoot != "" && cfg.StaticPrefix != "" {
		app.Static(cfg.StaticPrefix, cfg.StaticRoot, fiber.Static{ByteRange: true})
	}

	NewEmployeeHandler(employees).Register(app.Group("/employees"))
	NewTimesheetHandler(timesheets).Register(app.Group("/timesheets"))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	return app
}
