package timesheet

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/validation"
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

// Service はタイムシートに関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase はタイムシートユースケースの公開インターフェースです。
type UseCase interface {
	CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error)
	GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error)
	UpdateTimesheet(ctx context.Context, in UpdateTimesheetInput) (*Timesheet, error)
	DeleteTimesheet(ctx context.Context, in DeleteTimesheetInput) error
	ListTimesheets(ctx context.Context, in ListTimesheetsInput) (*ListTimesheetsResult, error)
	ListAllTimesheets(ctx context.Context, in ListTimesheetsInput) ([]*Timesheet, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateTimesheetInput はタイムシート作成時の入力です。
type CreateTimesheetInput struct {
	EmployeeID string
	StartTime  *time.Time
	EndTime    *time.Time
	Summary    string
}

// UpdateTimesheetInput はタイムシート更新時の入力です。全項目を置き換えます。
type UpdateTimesheetInput struct {
	ID         string
	EmployeeID string
	StartTime  *time.Time
	EndTime    *time.Time
	Summary    string
}

// DeleteTimesheetInput はタイムシート削除時の入力です。
type DeleteTimesheetInput struct {
	ID string
}

// GetTimesheetInput はタイムシート取得時の入力です。
type GetTimesheetInput struct {
	ID string
}

// ListTimesheetsInput は一覧取得時の入力です。
type ListTimesheetsInput struct {
	EmployeeID string
	Search     string
	From       *time.Time
	To         *time.Time
	PageSize   int
	PageToken  string
}

// ListTimesheetsResult は一覧取得結果を表します。
type ListTimesheetsResult struct {
	Timesheets    []*Timesheet
	NextPageToken string
}

// CreateTimesheet はタイムシートを作成します。
func (s *Service) CreateTimesheet(ctx context.Context, in CreateTimesheetInput) (*Timesheet, error) {
	ts, err := buildTimesheet(in.EmployeeID, in.StartTime, in.EndTime, in.Summary)
	if err != nil {
		return nil, err
	}

	var created *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		ts.CreatedAt = now
		ts.UpdatedAt = now

		result, err := s.repo.Create(txCtx, ts)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateTimesheet はタイムシートを更新します。
func (s *Service) UpdateTimesheet(ctx context.Context, in UpdateTimesheetInput) (*Timesheet, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Timesheet
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		ts, err := buildTimesheet(in.EmployeeID, in.StartTime, in.EndTime, in.Summary)
		if err != nil {
			return err
		}
		ts.ID = existing.ID
		ts.CreatedAt = existing.CreatedAt
		ts.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, ts)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteTimesheet はタイムシートを削除します。
func (s *Service) DeleteTimesheet(ctx context.Context, in DeleteTimesheetInput) error {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

// GetTimesheet はタイムシートを取得します。
func (s *Service) GetTimesheet(ctx context.Context, in GetTimesheetInput) (*Timesheet, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Timesheet
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

// ListTimesheets はタイムシートを開始時刻の降順で取得します。
func (s *Service) ListTimesheets(ctx context.Context, in ListTimesheetsInput) (*ListTimesheetsResult, error) {
	filter, err := buildFilter(in)
	if err != nil {
		return nil, err
	}

	var result *ListTimesheetsResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		result = &ListTimesheetsResult{Timesheets: found, NextPageToken: token}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListAllTimesheets は条件に合うタイムシートを全ページ分まとめて取得します。カレンダー表示とエクスポートで使います。
func (s *Service) ListAllTimesheets(ctx context.Context, in ListTimesheetsInput) ([]*Timesheet, error) {
	in.PageSize = maxListPageSize
	in.PageToken = ""

	filter, err := buildFilter(in)
	if err != nil {
		return nil, err
	}

	var all []*Timesheet
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

func buildTimesheet(employeeID string, start, end *time.Time, summary string) (*Timesheet, error) {
	empID := strings.TrimSpace(employeeID)
	if empID == "" {
		return nil, ErrInvalidEmployeeID
	}
	if start == nil || start.IsZero() {
		return nil, ErrInvalidStartTime
	}
	if end == nil || end.IsZero() {
		return nil, ErrInvalidEndTime
	}
	if err := validation.TimeOrder(*start, *end); err != nil {
		return nil, err
	}

	return &Timesheet{
		EmployeeID: empID,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		Summary:    strings.TrimSpace(summary),
	}, nil
}

func buildFilter(in ListTimesheetsInput) (ListTimesheetsFilter, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return ListTimesheetsFilter{}, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return ListTimesheetsFilter{}, err
	}

	if in.From != nil && in.To != nil && !in.From.Before(*in.To) {
		return ListTimesheetsFilter{}, ErrInvalidWindow
	}

	return ListTimesheetsFilter{
		EmployeeID: strings.TrimSpace(in.EmployeeID),
		Search:     strings.TrimSpace(in.Search),
		From:       in.From,
		To:         in.To,
		Limit:      limit,
		Offset:     offset,
	}, nil
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
