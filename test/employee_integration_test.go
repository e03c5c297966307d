//go:build integration

package integration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	repo "github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/storage/local"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/codex-hr-clean-arch/internal/platform/db/postgres"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "../assets/migrations"

func TestEmployeeLifecycleIntegration(t *testing.T) {
	cfg, err := config.Load(configPathFromEnv())
	require.NoError(t, err)

	require.NoError(t, resetMigrations(cfg.Database.DSN(), migrationsDir))

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	storeRoot := t.TempDir()
	store, err := local.New(storeRoot, "/uploads")
	require.NoError(t, err)

	tx := pg.NewTransactionManager(pool)
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	employees := employee.NewService(repo.NewEmployeeRepository(pool), store, stubClock{now: now}, tx, nil)
	timesheets := timesheet.NewService(repo.NewTimesheetRepository(pool), stubClock{now: now}, tx)

	dob := time.Date(1990, 4, 22, 0, 0, 0, 0, time.UTC)
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	fields := employee.Fields{
		FullName:    "Jane Smith",
		Email:       "jane.smith@example.com",
		DateOfBirth: &dob,
		StartDate:   &start,
		Department:  "Operations",
		Salary:      "95000",
	}

	created, err := employees.CreateEmployee(ctx, employee.CreateEmployeeInput{
		Fields: fields,
		Photo:  &attachment.Upload{Name: "jane.jpg", Size: 4, Content: strings.NewReader("jpeg")},
		Documents: []attachment.Upload{
			{Name: "cv.pdf", Size: 3, Content: strings.NewReader("pdf")},
			{Name: "id.pdf", Size: 2, Content: strings.NewReader("id")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created.Photo)
	require.Len(t, created.Documents, 2)
	require.Equal(t, 3, countFiles(t, storeRoot))

	_, err = employees.CreateEmployee(ctx, employee.CreateEmployeeInput{Fields: fields})
	require.ErrorIs(t, err, employee.ErrEmailAlreadyExists)

	entryStart := time.Date(2025, 2, 11, 12, 0, 0, 0, time.UTC)
	entryEnd := entryStart.Add(5 * time.Hour)
	entry, err := timesheets.CreateTimesheet(ctx, timesheet.CreateTimesheetInput{
		EmployeeID: created.ID,
		StartTime:  &entryStart,
		EndTime:    &entryEnd,
		Summary:    "Project planning",
	})
	require.NoError(t, err)
	require.Equal(t, "Jane Smith", entry.EmployeeName)

	// 写真を削除し、1 件目の書類だけを残して新しい書類を追加する。
	updated, err := employees.UpdateEmployee(ctx, employee.UpdateEmployeeInput{
		ID:            created.ID,
		Fields:        fields,
		KeptDocuments: []string{created.Documents[0].StoredPath},
		NewDocuments:  []attachment.Upload{{Name: "contract.pdf", Size: 8, Content: bytes.NewReader([]byte("contract"))}},
	})
	require.NoError(t, err)
	require.Nil(t, updated.Photo)
	require.Len(t, updated.Documents, 2)
	require.Equal(t, created.Documents[0], updated.Documents[0])
	require.Equal(t, "contract.pdf", updated.Documents[1].OriginalName)
	require.Equal(t, 2, countFiles(t, storeRoot))

	found, err := employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: created.ID})
	require.NoError(t, err)
	require.Equal(t, updated.Documents, found.Documents)

	require.NoError(t, employees.DeleteEmployee(ctx, employee.DeleteEmployeeInput{ID: created.ID}))
	require.Equal(t, 0, countFiles(t, storeRoot))

	_, err = employees.GetEmployee(ctx, employee.GetEmployeeInput{ID: created.ID})
	require.True(t, errors.Is(err, employee.ErrEmployeeNotFound), "got %v", err)

	_, err = timesheets.GetTimesheet(ctx, timesheet.GetTimesheetInput{ID: entry.ID})
	require.ErrorIs(t, err, timesheet.ErrTimesheetNotFound)
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	}))
	return n
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "../assets/local.yaml"
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}
