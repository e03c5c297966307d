package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/validation"
)

const (
	uniqueViolationCode           = "23505"
	foreignKeyViolationCode       = "23503"
	checkViolationCode            = "23514"
	invalidTextRepresentationCode = "22P02"
)

// constraintViolations は CHECK 制約名と入力検証ルールの対応です。
var constraintViolations = map[string]validation.Violation{
	"employees_dob_before_start":  {Field: validation.FieldDateOrder, Message: validation.MessageDOBBeforeStart},
	"employees_start_before_end":  {Field: validation.FieldDateOrder, Message: validation.MessageStartBeforeEnd},
	"employees_salary_floor":      {Field: validation.FieldSalary, Message: validation.MessageSalary},
	"timesheets_start_before_end": {Field: validation.FieldTimeOrder, Message: validation.MessageTimeOrder},
}

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// checkViolation は CHECK 制約違反を対応する Violation に変換します。未知の制約なら false を返します。
func checkViolation(pgErr *pgconn.PgError) (error, bool) {
	if pgErr.Code != checkViolationCode {
		return nil, false
	}
	v, ok := constraintViolations[pgErr.ConstraintName]
	if !ok {
		return nil, false
	}
	return &validation.Violation{Field: v.Field, Message: v.Message}, true
}
