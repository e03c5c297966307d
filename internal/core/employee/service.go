package employee

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/validation"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は社員の作成・編集・削除ワークフローをまとめます。
type Service struct {
	repo       Repository
	reconciler *attachment.Reconciler
	clock      Clock
	tx         TransactionManager
	logger     logging.Logger
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	ListAllEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
	CheckEmployee(ctx context.Context, in Fields) map[string]string
}

// NewService は Service を生成します。clock・tx・logger は nil の場合に既定値を使います。
func NewService(repo Repository, store attachment.Store, clock Clock, tx TransactionManager, logger logging.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		repo:       repo,
		reconciler: attachment.NewReconciler(store),
		clock:      clock,
		tx:         tx,
		logger:     logger.With("component", "employee"),
	}
}

// Fields は社員フォームのスカラー項目です。Salary は入力文字列のまま受け取ります。
type Fields struct {
	FullName    string
	Email       string
	PhoneNumber string
	DateOfBirth *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	JobTitle    string
	Department  string
	Salary      string
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Fields    Fields
	Photo     *attachment.Upload
	Documents []attachment.Upload
}

// UpdateEmployeeInput は社員更新時の入力です。添付は送信された最終状態で置き換えます。
type UpdateEmployeeInput struct {
	ID            string
	Fields        Fields
	KeptPhoto     string
	KeptDocuments []string
	NewPhoto      *attachment.Upload
	NewDocuments  []attachment.Upload
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	ID string
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	ID string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Search     string
	Department string
	Sort       SortField
	PageSize   int
	PageToken  string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []*Employee
	NextPageToken string
}

// CreateEmployee は添付ファイルを保存してから社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	emp, err := s.buildEmployee(in.Fields)
	if err != nil {
		return nil, err
	}

	var (
		staged  *attachment.Result
		created *Employee
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		res, err := s.reconciler.Reconcile(txCtx, attachment.Prior{}, attachment.Submission{
			NewPhoto:     in.Photo,
			NewDocuments: in.Documents,
		})
		if err != nil {
			return err
		}
		staged = res

		now := s.clock.Now()
		emp.Photo = res.Photo
		emp.Documents = res.Documents
		emp.CreatedAt = now
		emp.UpdatedAt = now

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		s.discardStaged(ctx, staged)
		return nil, err
	}

	s.logger.Info(ctx, "employee created", "id", created.ID, "documents", len(created.Documents))
	return created, nil
}

// UpdateEmployee は社員のスカラー項目と添付を置き換えます。
// 参照されなくなったファイルはレコード更新のコミット後に削除し、削除の失敗は記録のみ行います。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var (
		staged  *attachment.Result
		updated *Employee
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		emp, err := s.buildEmployee(in.Fields)
		if err != nil {
			return err
		}

		res, err := s.reconciler.Reconcile(txCtx, attachment.Prior{
			Photo:     existing.Photo,
			Documents: existing.Documents,
		}, attachment.Submission{
			KeptPhoto:     strings.TrimSpace(in.KeptPhoto),
			KeptDocuments: in.KeptDocuments,
			NewPhoto:      in.NewPhoto,
			NewDocuments:  in.NewDocuments,
		})
		if err != nil {
			return err
		}
		staged = res

		emp.ID = existing.ID
		emp.Photo = res.Photo
		emp.Documents = res.Documents
		emp.CreatedAt = existing.CreatedAt
		emp.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, emp)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		s.discardStaged(ctx, staged)
		return nil, err
	}

	s.reclaim(ctx, updated.ID, staged.ToDelete)
	return updated, nil
}

// DeleteEmployee は社員を削除し、所有していたファイルを回収します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	var owned []attachment.Attachment
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		prior, err := s.repo.Delete(txCtx, id)
		if err != nil {
			return err
		}
		owned = prior
		return nil
	}); err != nil {
		return err
	}

	s.reclaim(ctx, id, attachment.StoredPaths(owned))
	return nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	if !isValidSortField(in.Sort) {
		return nil, ErrInvalidSortField
	}

	var (
		employees []*Employee
		nextToken string
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, ListEmployeesFilter{
			Search:     strings.TrimSpace(in.Search),
			Department: strings.TrimSpace(in.Department),
			Sort:       in.Sort,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		employees = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// ListAllEmployees は検索条件に合う社員を全ページ分取得します。エクスポート用です。
func (s *Service) ListAllEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	if !isValidSortField(in.Sort) {
		return nil, ErrInvalidSortField
	}

	filter := ListEmployeesFilter{
		Search:     strings.TrimSpace(in.Search),
		Department: strings.TrimSpace(in.Department),
		Sort:       in.Sort,
		Limit:      maxListPageSize,
	}

	var all []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		for {
			found, token, err := s.repo.List(txCtx, filter)
			if err != nil {
				return err
			}
			all = append(all, found...)
			if token == "" {
				return nil
			}
			next, err := parsePageToken(token)
			if err != nil {
				return err
			}
			filter.Offset = next
		}
	}); err != nil {
		return nil, err
	}

	return all, nil
}

// CheckEmployee はフォーム入力中の即時検証です。コミット時と同じルールを評価し、違反をフィールド単位で返します。
func (s *Service) CheckEmployee(_ context.Context, in Fields) map[string]string {
	fields := validation.AsFields(validation.ValidateEmployee(validationInput(in), s.clock.Now()))
	if fields == nil {
		return map[string]string{}
	}
	return fields
}

func (s *Service) buildEmployee(in Fields) (*Employee, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, ErrInvalidFullName
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	if in.DateOfBirth == nil || in.DateOfBirth.IsZero() {
		return nil, ErrInvalidDateOfBirth
	}
	if in.StartDate == nil || in.StartDate.IsZero() {
		return nil, ErrInvalidStartDate
	}

	if err := validation.ValidateEmployee(validationInput(in), s.clock.Now()); err != nil {
		return nil, err
	}

	salary, err := parseSalary(in.Salary)
	if err != nil {
		return nil, err
	}

	return &Employee{
		FullName:    fullName,
		Email:       email,
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		DateOfBirth: *normalizeDate(in.DateOfBirth),
		StartDate:   *normalizeDate(in.StartDate),
		EndDate:     normalizeDate(in.EndDate),
		JobTitle:    strings.TrimSpace(in.JobTitle),
		Department:  strings.TrimSpace(in.Department),
		Salary:      salary,
	}, nil
}

// discardStaged はコミットされなかった新規ファイルを破棄します。
func (s *Service) discardStaged(ctx context.Context, staged *attachment.Result) {
	if staged == nil || len(staged.Stored) == 0 {
		return
	}
	for path, err := range s.reconciler.Discard(ctx, staged.Stored) {
		s.logger.Warn(ctx, "failed to discard staged file", "path", path, "error", err)
	}
}

// reclaim は参照されなくなったファイルを削除します。失敗は呼び出し元へ返しません。
func (s *Service) reclaim(ctx context.Context, id string, paths []string) {
	if len(paths) == 0 {
		return
	}
	for path, err := range s.reconciler.Discard(ctx, paths) {
		s.logger.Warn(ctx, "failed to reclaim orphan file", "employee_id", id, "path", path, "error", err)
	}
}

func validationInput(in Fields) validation.EmployeeInput {
	out := validation.EmployeeInput{Salary: in.Salary, EndDate: normalizeDate(in.EndDate)}
	if in.DateOfBirth != nil {
		out.DateOfBirth = *normalizeDate(in.DateOfBirth)
	}
	if in.StartDate != nil {
		out.StartDate = *normalizeDate(in.StartDate)
	}
	return out
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func parseSalary(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, validation.SalaryFloor(trimmed)
	}
	return &value, nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

func isValidSortField(f SortField) bool {
	switch f {
	case SortDefault, SortFullName, SortEmail, SortJobTitle, SortDepartment, SortStartDate:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
