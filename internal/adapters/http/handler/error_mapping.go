package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/validation"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
)

// errorResponse はエラー時のレスポンスボディです。
type errorResponse struct {
	Error      string            `json:"error"`
	Violations map[string]string `json:"violations,omitempty"`
}

// inputError はリクエストの形式不備を表します。
type inputError struct {
	field string
	err   error
}

func (e *inputError) Error() string {
	return e.field + ": " + e.err.Error()
}

func (e *inputError) Unwrap() error {
	return e.err
}

func badInput(field string, err error) error {
	return &inputError{field: field, err: err}
}

func statusOf(err error) int {
	var (
		inErr    *inputError
		fiberErr *fiber.Error
	)
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &inErr),
		errors.Is(err, employee.ErrInvalidID),
		errors.Is(err, employee.ErrInvalidFullName),
		errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidDateOfBirth),
		errors.Is(err, employee.ErrInvalidStartDate),
		errors.Is(err, employee.ErrInvalidSortField),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, timesheet.ErrInvalidID),
		errors.Is(err, timesheet.ErrInvalidEmployeeID),
		errors.Is(err, timesheet.ErrInvalidStartTime),
		errors.Is(err, timesheet.ErrInvalidEndTime),
		errors.Is(err, timesheet.ErrInvalidWindow),
		errors.Is(err, timesheet.ErrInvalidPageSize),
		errors.Is(err, timesheet.ErrInvalidPageToken):
		return fiber.StatusBadRequest
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, timesheet.ErrTimesheetNotFound),
		errors.Is(err, timesheet.ErrEmployeeNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, employee.ErrEmailAlreadyExists):
		return fiber.StatusConflict
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler はハンドラーが返したエラーを HTTP ステータスと JSON ボディに変換します。
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := statusOf(err)
		body := errorResponse{Error: err.Error()}

		switch {
		case code == fiber.StatusUnprocessableEntity:
			body.Error = validation.ErrValidationFailed.Error()
			body.Violations = validation.AsFields(err)
		case code >= fiber.StatusInternalServerError:
			logger.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
			body.Error = "internal server error"
			if errors.Is(err, attachment.ErrStorage) {
				body.Error = "failed to store attachment"
			}
		}

		return c.Status(code).JSON(body)
	}
}
