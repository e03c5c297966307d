package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
)

// RequestLogger はリクエストごとにメソッド・パス・ステータス・処理時間を記録します。
func RequestLogger(logger logging.Logger) fiber.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		logger.Info(c.UserContext(), "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return nil
	}
}
