package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	pgdb "github.com/ogurasousui/codex-hr-clean-arch/internal/platform/db/postgres"
)

// TimesheetRepository は PostgreSQL を利用したタイムシート永続化の実装です。
type TimesheetRepository struct {
	pool pgdb.Queryer
}

// NewTimesheetRepository は TimesheetRepository を生成します。
func NewTimesheetRepository(pool pgdb.Queryer) *TimesheetRepository {
	return &TimesheetRepository{pool: pool}
}

// Create はタイムシートを新規作成し、社員名を結合して返します。
func (r *TimesheetRepository) Create(ctx context.Context, ts *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH inserted AS (
            INSERT INTO timesheets (employee_id, start_time, end_time, summary, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, employee_id, start_time, end_time, summary, created_at, updated_at
        )
        SELECT i.id, i.employee_id, e.full_name, i.start_time, i.end_time, i.summary, i.created_at, i.updated_at
          FROM inserted i
          JOIN employees e ON e.id = i.employee_id
    `,
		ts.EmployeeID,
		ts.StartTime,
		ts.EndTime,
		ts.Summary,
		ts.CreatedAt,
		ts.UpdatedAt,
	)

	created, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err, timesheet.ErrEmployeeNotFound)
	}
	return created, nil
}

// Update はタイムシートを全項目置き換えます。
func (r *TimesheetRepository) Update(ctx context.Context, ts *timesheet.Timesheet) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        WITH updated AS (
            UPDATE timesheets
               SET employee_id = $1,
                   start_time = $2,
                   end_time = $3,
                   summary = $4,
                   updated_at = $5
             WHERE id = $6
            RETURNING id, employee_id, start_time, end_time, summary, created_at, updated_at
        )
        SELECT u.id, u.employee_id, e.full_name, u.start_time, u.end_time, u.summary, u.created_at, u.updated_at
          FROM updated u
          JOIN employees e ON e.id = u.employee_id
    `,
		ts.EmployeeID,
		ts.StartTime,
		ts.EndTime,
		ts.Summary,
		ts.UpdatedAt,
		ts.ID,
	)

	updated, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err, timesheet.ErrEmployeeNotFound)
	}
	return updated, nil
}

// Delete はタイムシートを削除します。
func (r *TimesheetRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM timesheets WHERE id = $1`, id)
	if err != nil {
		return translateTimesheetPgError(err, timesheet.ErrTimesheetNotFound)
	}
	if tag.RowsAffected() == 0 {
		return timesheet.ErrTimesheetNotFound
	}
	return nil
}

// FindByID は ID でタイムシートを取得します。
func (r *TimesheetRepository) FindByID(ctx context.Context, id string) (*timesheet.Timesheet, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT t.id, t.employee_id, e.full_name, t.start_time, t.end_time, t.summary, t.created_at, t.updated_at
          FROM timesheets t
          JOIN employees e ON e.id = t.employee_id
         WHERE t.id = $1
         LIMIT 1
    `, id)

	found, err := scanTimesheet(row)
	if err != nil {
		return nil, translateTimesheetPgError(err, timesheet.ErrTimesheetNotFound)
	}
	return found, nil
}

// List はタイムシートを開始時刻の降順で取得します。
func (r *TimesheetRepository) List(ctx context.Context, filter timesheet.ListTimesheetsFilter) ([]*timesheet.Timesheet, string, error) {
	if filter.Limit <= 0 {
		return nil, "", timesheet.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", timesheet.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 6)
	conditions := make([]string, 0, 4)

	if filter.EmployeeID != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "t.employee_id = "+placeholder)
		args = append(args, filter.EmployeeID)
	}

	if filter.Search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "(e.full_name ILIKE "+placeholder+" OR t.summary ILIKE "+placeholder+")")
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	if filter.From != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "t.end_time > "+placeholder)
		args = append(args, filter.From.UTC())
	}

	if filter.To != nil {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "t.start_time < "+placeholder)
		args = append(args, filter.To.UTC())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `
        SELECT t.id, t.employee_id, e.full_name, t.start_time, t.end_time, t.summary, t.created_at, t.updated_at
          FROM timesheets t
          JOIN employees e ON e.id = t.employee_id` + whereClause + `
         ORDER BY t.start_time DESC, t.id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateTimesheetPgError(err, timesheet.ErrEmployeeNotFound)
	}
	defer rows.Close()

	timesheets := make([]*timesheet.Timesheet, 0, filter.Limit)
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, "", translateTimesheetPgError(err, timesheet.ErrEmployeeNotFound)
		}
		timesheets = append(timesheets, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateTimesheetPgError(err, timesheet.ErrEmployeeNotFound)
	}

	var nextToken string
	if len(timesheets) == limitWithBuffer {
		timesheets = timesheets[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return timesheets, nextToken, nil
}

func scanTimesheet(row pgx.Row) (*timesheet.Timesheet, error) {
	var ts timesheet.Timesheet
	if err := row.Scan(
		&ts.ID,
		&ts.EmployeeID,
		&ts.EmployeeName,
		&ts.StartTime,
		&ts.EndTime,
		&ts.Summary,
		&ts.CreatedAt,
		&ts.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, timesheet.ErrTimesheetNotFound
		}
		return nil, err
	}

	ts.StartTime = ts.StartTime.UTC()
	ts.EndTime = ts.EndTime.UTC()
	return &ts, nil
}

// translateTimesheetPgError は pgx のエラーをドメインエラーに変換します。malformed は UUID として解釈できない値を参照したときの戻り値です。
func translateTimesheetPgError(err error, malformed error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return timesheet.ErrTimesheetNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			return timesheet.ErrEmployeeNotFound
		case invalidTextRepresentationCode:
			return malformed
		case checkViolationCode:
			if violation, ok := checkViolation(pgErr); ok {
				return violation
			}
		}
	}

	return err
}
