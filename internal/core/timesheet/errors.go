package timesheet

import "errors"

var (
	ErrInvalidID         = errors.New("timesheet: invalid id")
	ErrInvalidEmployeeID = errors.New("timesheet: invalid employee id")
	ErrInvalidStartTime  = errors.New("timesheet: invalid start time")
	ErrInvalidEndTime    = errors.New("timesheet: invalid end time")
	ErrInvalidWindow     = errors.New("timesheet: invalid time window")
	ErrInvalidPageSize   = errors.New("timesheet: invalid page size")
	ErrInvalidPageToken  = errors.New("timesheet: invalid page token")
	ErrTimesheetNotFound = errors.New("timesheet: not found")
	ErrEmployeeNotFound  = errors.New("timesheet: employee not found")
)
