package employee

import "errors"

var (
	ErrInvalidID          = errors.New("employee: invalid id")
	ErrInvalidFullName    = errors.New("employee: invalid full name")
	ErrInvalidEmail       = errors.New("employee: invalid email")
	ErrInvalidDateOfBirth = errors.New("employee: invalid date of birth")
	ErrInvalidStartDate   = errors.New("employee: invalid start date")
	ErrInvalidSortField   = errors.New("employee: invalid sort field")
	ErrInvalidPageSize    = errors.New("employee: invalid page size")
	ErrInvalidPageToken   = errors.New("employee: invalid page token")
	ErrEmployeeNotFound   = errors.New("employee: not found")
	ErrEmailAlreadyExists = errors.New("employee: email already exists")
)
