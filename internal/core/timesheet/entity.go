package timesheet

import "time"

// Timesheet は社員の勤務記録です。
type Timesheet struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	StartTime    time.Time
	EndTime      time.Time
	Summary      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
