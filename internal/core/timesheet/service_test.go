package timesheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/validation"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeTimesheetRepo struct {
	timesheets map[string]*Timesheet
	employees  map[string]string
	order      []string
	sequence   int
	listCalls  int
}

func newFakeTimesheetRepo() *fakeTimesheetRepo {
	return &fakeTimesheetRepo{
		timesheets: make(map[string]*Timesheet),
		employees:  map[string]string{"emp-1": "Jane Doe", "emp-2": "John Smith"},
	}
}

func (r *fakeTimesheetRepo) Create(_ context.Context, ts *Timesheet) (*Timesheet, error) {
	name, ok := r.employees[ts.EmployeeID]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	clone := *ts
	r.sequence++
	clone.ID = fmt.Sprintf("ts-%d", r.sequence)
	clone.EmployeeName = name
	r.timesheets[clone.ID] = &clone
	r.order = append(r.order, clone.ID)
	out := clone
	return &out, nil
}

func (r *fakeTimesheetRepo) Update(_ context.Context, ts *Timesheet) (*Timesheet, error) {
	if _, ok := r.timesheets[ts.ID]; !ok {
		return nil, ErrTimesheetNotFound
	}
	name, ok := r.employees[ts.EmployeeID]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	clone := *ts
	clone.EmployeeName = name
	r.timesheets[ts.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeTimesheetRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.timesheets[id]; !ok {
		return ErrTimesheetNotFound
	}
	delete(r.timesheets, id)
	for idx, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeTimesheetRepo) FindByID(_ context.Context, id string) (*Timesheet, error) {
	ts, ok := r.timesheets[id]
	if !ok {
		return nil, ErrTimesheetNotFound
	}
	out := *ts
	return &out, nil
}

func (r *fakeTimesheetRepo) List(_ context.Context, filter ListTimesheetsFilter) ([]*Timesheet, string, error) {
	r.listCalls++
	var filtered []*Timesheet
	for _, id := range r.order {
		ts := r.timesheets[id]
		if filter.EmployeeID != "" && ts.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(ts.Summary), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.From != nil && !ts.EndTime.After(*filter.From) {
			continue
		}
		if filter.To != nil && !ts.StartTime.Before(*filter.To) {
			continue
		}
		out := *ts
		filtered = append(filtered, &out)
	}

	if filter.Offset > len(filtered) {
		return []*Timesheet{}, "", nil
	}
	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	next := ""
	if end < len(filtered) {
		next = strconv.Itoa(end)
	}
	return filtered[filter.Offset:end], next, nil
}

func at(hour int) *time.Time {
	t := time.Date(2024, 3, 4, hour, 0, 0, 0, time.UTC)
	return &t
}

func newTestService() (*Service, *fakeTimesheetRepo, *stubClock) {
	repo := newFakeTimesheetRepo()
	clock := &stubClock{now: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)}
	return NewService(repo, clock, nil), repo, clock
}

func TestService_CreateTimesheet(t *testing.T) {
	t.Parallel()
	svc, _, clock := newTestService()

	ts, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{
		EmployeeID: " emp-1 ",
		StartTime:  at(9),
		EndTime:    at(17),
		Summary:    "  Sprint planning ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.ID == "" || ts.EmployeeID != "emp-1" {
		t.Fatalf("unexpected timesheet: %+v", ts)
	}
	if ts.EmployeeName != "Jane Doe" {
		t.Fatalf("expected employee name to be resolved, got %q", ts.EmployeeName)
	}
	if ts.Summary != "Sprint planning" {
		t.Fatalf("expected trimmed summary, got %q", ts.Summary)
	}
	if !ts.CreatedAt.Equal(clock.now) || !ts.UpdatedAt.Equal(clock.now) {
		t.Fatalf("unexpected timestamps: %+v", ts)
	}
}

func TestService_CreateTimesheet_InvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   CreateTimesheetInput
		want error
	}{
		{name: "missing employee", in: CreateTimesheetInput{StartTime: at(9), EndTime: at(10)}, want: ErrInvalidEmployeeID},
		{name: "missing start", in: CreateTimesheetInput{EmployeeID: "emp-1", EndTime: at(10)}, want: ErrInvalidStartTime},
		{name: "missing end", in: CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(9)}, want: ErrInvalidEndTime},
		{name: "end before start", in: CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(10), EndTime: at(9)}, want: validation.ErrValidationFailed},
		{name: "equal times", in: CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(9), EndTime: at(9)}, want: validation.ErrValidationFailed},
		{name: "unknown employee", in: CreateTimesheetInput{EmployeeID: "emp-9", StartTime: at(9), EndTime: at(10)}, want: ErrEmployeeNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _ := newTestService()
			_, err := svc.CreateTimesheet(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_CreateTimesheet_TimeOrderMessage(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService()

	_, err := svc.CreateTimesheet(context.Background(), CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(12), EndTime: at(8)})
	fields := validation.AsFields(err)
	if fields[validation.FieldTimeOrder] != validation.MessageTimeOrder {
		t.Fatalf("unexpected violation fields: %v", fields)
	}
}

func TestService_UpdateTimesheet(t *testing.T) {
	t.Parallel()
	svc, _, clock := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTimesheet(ctx, CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(9), EndTime: at(10), Summary: "Standup"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	clock.now = clock.now.Add(time.Hour)
	updated, err := svc.UpdateTimesheet(ctx, UpdateTimesheetInput{
		ID:         created.ID,
		EmployeeID: "emp-2",
		StartTime:  at(13),
		EndTime:    at(15),
		Summary:    "Review",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.EmployeeID != "emp-2" || updated.EmployeeName != "John Smith" || updated.Summary != "Review" {
		t.Fatalf("unexpected updated timesheet: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must be preserved: %v vs %v", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.Equal(clock.now) {
		t.Fatalf("expected updated_at %v, got %v", clock.now, updated.UpdatedAt)
	}
}

func TestService_UpdateTimesheet_Errors(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.UpdateTimesheet(ctx, UpdateTimesheetInput{ID: " "}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.UpdateTimesheet(ctx, UpdateTimesheetInput{ID: "missing", EmployeeID: "emp-1", StartTime: at(9), EndTime: at(10)}); !errors.Is(err, ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound, got %v", err)
	}

	created, err := svc.CreateTimesheet(ctx, CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(9), EndTime: at(10)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.UpdateTimesheet(ctx, UpdateTimesheetInput{ID: created.ID, EmployeeID: "emp-1", StartTime: at(11), EndTime: at(10)})
	if !errors.Is(err, validation.ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if stored := repo.timesheets[created.ID]; !stored.StartTime.Equal(*at(9)) {
		t.Fatalf("record must stay untouched on validation failure: %+v", stored)
	}
}

func TestService_DeleteTimesheet(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTimesheet(ctx, CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(9), EndTime: at(10)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteTimesheet(ctx, DeleteTimesheetInput{ID: created.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.timesheets[created.ID]; ok {
		t.Fatalf("timesheet should be removed")
	}
	if err := svc.DeleteTimesheet(ctx, DeleteTimesheetInput{ID: created.ID}); !errors.Is(err, ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound, got %v", err)
	}
	if _, err := svc.GetTimesheet(ctx, GetTimesheetInput{ID: created.ID}); !errors.Is(err, ErrTimesheetNotFound) {
		t.Fatalf("expected ErrTimesheetNotFound on get, got %v", err)
	}
}

func TestService_ListTimesheets_Paging(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService()
	ctx := context.Background()

	for hour := 8; hour < 13; hour++ {
		if _, err := svc.CreateTimesheet(ctx, CreateTimesheetInput{EmployeeID: "emp-1", StartTime: at(hour), EndTime: at(hour + 1)}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	first, err := svc.ListTimesheets(ctx, ListTimesheetsInput{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Timesheets) != 2 || first.NextPageToken != "2" {
		t.Fatalf("unexpected first page: %d items token=%q", len(first.Timesheets), first.NextPageToken)
	}

	last, err := svc.ListTimesheets(ctx, ListTimesheetsInput{PageSize: 2, PageToken: "4"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last.Timesheets) != 1 || last.NextPageToken != "" {
		t.Fatalf("unexpected last page: %d items token=%q", len(last.Timesheets), last.NextPageToken)
	}

	if _, err := svc.ListTimesheets(ctx, ListTimesheetsInput{PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := svc.ListTimesheets(ctx, ListTimesheetsInput{PageToken: "abc"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
	if _, err := svc.ListTimesheets(ctx, ListTimesheetsInput{From: at(12), To: at(12)}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestService_ListAllTimesheets_WindowAcrossPages(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < maxListPageSize+5; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		end := start.Add(30 * time.Minute)
		if _, err := svc.CreateTimesheet(ctx, CreateTimesheetInput{EmployeeID: "emp-2", StartTime: &start, EndTime: &end}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := svc.ListAllTimesheets(ctx, ListTimesheetsInput{PageSize: 1, PageToken: "7"})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != maxListPageSize+5 {
		t.Fatalf("expected %d timesheets, got %d", maxListPageSize+5, len(all))
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected 2 repository calls, got %d", repo.listCalls)
	}

	from := base.Add(2 * time.Hour)
	to := base.Add(4 * time.Hour)
	window, err := svc.ListAllTimesheets(ctx, ListTimesheetsInput{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("expected 2 timesheets in window, got %d", len(window))
	}
}
