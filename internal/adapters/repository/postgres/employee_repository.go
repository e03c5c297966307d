package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-hr-clean-arch/internal/platform/db/postgres"
)

const employeeColumns = `id, full_name, email, phone_number, date_of_birth, start_date, end_date,
               job_title, department, salary, photo_path, photo_name, documents, created_at, updated_at`

// employeeSortColumns は一覧の並び順と ORDER BY 句の対応です。
var employeeSortColumns = map[employee.SortField]string{
	employee.SortDefault:    "created_at DESC, id DESC",
	employee.SortFullName:   "full_name ASC, id ASC",
	employee.SortEmail:      "email ASC, id ASC",
	employee.SortJobTitle:   "job_title ASC, id ASC",
	employee.SortDepartment: "department ASC, id ASC",
	employee.SortStartDate:  "start_date ASC, id ASC",
}

// documentRecord は documents JSONB 列の要素です。
type documentRecord struct {
	OriginalName string `json:"originalName"`
	StoredPath   string `json:"storedPath"`
}

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	docs, err := encodeDocuments(e.Documents)
	if err != nil {
		return nil, err
	}
	photoPath, photoName := photoColumns(e.Photo)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (full_name, email, phone_number, date_of_birth, start_date, end_date,
                               job_title, department, salary, photo_path, photo_name, documents, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING `+employeeColumns,
		e.FullName,
		e.Email,
		e.PhoneNumber,
		dateOnly(e.DateOfBirth),
		dateOnly(e.StartDate),
		nullableDate(e.EndDate),
		e.JobTitle,
		e.Department,
		e.Salary,
		photoPath,
		photoName,
		docs,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を全項目置き換えます。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	docs, err := encodeDocuments(e.Documents)
	if err != nil {
		return nil, err
	}
	photoPath, photoName := photoColumns(e.Photo)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET full_name = $1,
               email = $2,
               phone_number = $3,
               date_of_birth = $4,
               start_date = $5,
               end_date = $6,
               job_title = $7,
               department = $8,
               salary = $9,
               photo_path = $10,
               photo_name = $11,
               documents = $12,
               updated_at = $13
         WHERE id = $14
        RETURNING `+employeeColumns,
		e.FullName,
		e.Email,
		e.PhoneNumber,
		dateOnly(e.DateOfBirth),
		dateOnly(e.StartDate),
		nullableDate(e.EndDate),
		e.JobTitle,
		e.Department,
		e.Salary,
		photoPath,
		photoName,
		docs,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除し、削除した行が参照していた添付を返します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) ([]attachment.Attachment, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        DELETE FROM employees
         WHERE id = $1
        RETURNING photo_path, photo_name, documents
    `, id)

	var (
		photoPath *string
		photoName *string
		rawDocs   []byte
	)
	if err := row.Scan(&photoPath, &photoName, &rawDocs); err != nil {
		return nil, translateEmployeePgError(err)
	}

	docs, err := decodeDocuments(rawDocs)
	if err != nil {
		return nil, err
	}
	return attachment.Attachments(photoFromColumns(photoPath, photoName), docs), nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}
	orderBy, ok := employeeSortColumns[filter.Sort]
	if !ok {
		return nil, "", employee.ErrInvalidSortField
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 4)
	conditions := make([]string, 0, 2)

	if filter.Search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "(full_name ILIKE "+placeholder+
			" OR email ILIKE "+placeholder+
			" OR job_title ILIKE "+placeholder+
			" OR phone_number ILIKE "+placeholder+")")
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	if filter.Department != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "department = "+placeholder)
		args = append(args, filter.Department)
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
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY ` + orderBy + `
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e         employee.Employee
		endDate   *time.Time
		salary    *float64
		photoPath *string
		photoName *string
		rawDocs   []byte
	)

	if err := row.Scan(
		&e.ID,
		&e.FullName,
		&e.Email,
		&e.PhoneNumber,
		&e.DateOfBirth,
		&e.StartDate,
		&endDate,
		&e.JobTitle,
		&e.Department,
		&salary,
		&photoPath,
		&photoName,
		&rawDocs,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	docs, err := decodeDocuments(rawDocs)
	if err != nil {
		return nil, err
	}

	e.DateOfBirth = dateOnly(e.DateOfBirth)
	e.StartDate = dateOnly(e.StartDate)
	if endDate != nil {
		end := dateOnly(*endDate)
		e.EndDate = &end
	}
	e.Salary = salary
	e.Photo = photoFromColumns(photoPath, photoName)
	e.Documents = docs

	return &e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return employee.ErrEmailAlreadyExists
		case invalidTextRepresentationCode:
			return employee.ErrEmployeeNotFound
		case checkViolationCode:
			if violation, ok := checkViolation(pgErr); ok {
				return violation
			}
		}
	}

	return err
}

func encodeDocuments(docs []attachment.Attachment) ([]byte, error) {
	records := make([]documentRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, documentRecord{OriginalName: d.OriginalName, StoredPath: d.StoredPath})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode documents: %w", err)
	}
	return b, nil
}

func decodeDocuments(raw []byte) ([]attachment.Attachment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []documentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("postgres: decode documents: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	docs := make([]attachment.Attachment, 0, len(records))
	for _, rec := range records {
		docs = append(docs, attachment.Attachment{OriginalName: rec.OriginalName, StoredPath: rec.StoredPath})
	}
	return docs, nil
}

func photoColumns(photo *attachment.Attachment) (any, any) {
	if photo == nil || photo.StoredPath == "" {
		return nil, nil
	}
	return photo.StoredPath, photo.OriginalName
}

func photoFromColumns(path, name *string) *attachment.Attachment {
	if path == nil || *path == "" {
		return nil
	}
	photo := &attachment.Attachment{StoredPath: *path}
	if name != nil {
		photo.OriginalName = *name
	}
	return photo
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return dateOnly(*value)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
