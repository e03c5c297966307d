package employee

import (
	"time"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
)

// Employee は社員エンティティです。
type Employee struct {
	ID          string
	FullName    string
	Email       string
	PhoneNumber string
	DateOfBirth time.Time
	StartDate   time.Time
	EndDate     *time.Time
	JobTitle    string
	Department  string
	Salary      *float64
	Photo       *attachment.Attachment
	Documents   []attachment.Attachment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Attachments は社員が所有するすべての添付を返します。
func (e *Employee) Attachments() []attachment.Attachment {
	if e == nil {
		return nil
	}
	return attachment.Attachments(e.Photo, e.Documents)
}
