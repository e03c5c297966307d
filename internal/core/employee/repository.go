package employee

import (
	"context"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
)

// Repository は社員永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	// Delete は社員を削除し、削除前に参照していた添付を返します。
	Delete(ctx context.Context, id string) ([]attachment.Attachment, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
}

// SortField は一覧の並び順です。
type SortField string

const (
	SortDefault    SortField = ""
	SortFullName   SortField = "full_name"
	SortEmail      SortField = "email"
	SortJobTitle   SortField = "job_title"
	SortDepartment SortField = "department"
	SortStartDate  SortField = "start_date"
)

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	Search     string
	Department string
	Sort       SortField
	Limit      int
	Offset     int
}
