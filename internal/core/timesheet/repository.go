package timesheet

import (
	"context"
	"time"
)

// Repository はタイムシート永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, ts *Timesheet) (*Timesheet, error)
	Update(ctx context.Context, ts *Timesheet) (*Timesheet, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Timesheet, error)
	List(ctx context.Context, filter ListTimesheetsFilter) ([]*Timesheet, string, error)
}

// ListTimesheetsFilter は一覧取得用フィルタです。From/To は [From, To) と重なる記録を対象にします。
type ListTimesheetsFilter struct {
	EmployeeID string
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
