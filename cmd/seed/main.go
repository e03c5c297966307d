package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/storage/local"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/codex-hr-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/platform/logging"
)

type seedEmployee struct {
	fullName    string
	email       string
	phone       string
	dateOfBirth string
	jobTitle    string
	department  string
	salary      string
	startDate   string
}

type seedTimesheet struct {
	employee int
	start    string
	end      string
	summary  string
}

var employees = []seedEmployee{
	{fullName: "John Doe", email: "john.doe@example.com", phone: "123-456-7890", dateOfBirth: "1985-06-15", jobTitle: "Software Engineer", department: "Engineering", salary: "80000", startDate: "2021-01-15"},
	{fullName: "Jane Smith", email: "jane.smith@example.com", phone: "234-567-8901", dateOfBirth: "1990-04-22", jobTitle: "Project Manager", department: "Operations", salary: "95000", startDate: "2020-03-01"},
	{fullName: "Alice Johnson", email: "alice.johnson@example.com", phone: "345-678-9012", dateOfBirth: "1982-11-10", jobTitle: "HR Specialist", department: "Human Resources", salary: "65000", startDate: "2019-09-05"},
}

var timesheets = []seedTimesheet{
	{employee: 0, start: "2025-02-10 08:00:00", end: "2025-02-10 17:00:00", summary: "Developed new feature for product A"},
	{employee: 1, start: "2025-02-11 12:00:00", end: "2025-02-11 17:00:00", summary: "Project planning and client meeting"},
	{employee: 2, start: "2025-02-12 07:00:00", end: "2025-02-12 16:00:00", summary: "Processed employee benefits requests"},
}

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := logging.New(os.Stderr, "info", "text")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error(ctx, "seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "database seeded")
}

func run(ctx context.Context, configPath string, logger logging.Logger) error {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "assets/local.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database pool: %w", err)
	}
	defer pool.Close()

	store, err := local.New(cfg.Storage.Root, cfg.Storage.URLPrefix)
	if err != nil {
		return fmt.Errorf("initialize file store: %w", err)
	}

	tx := pg.NewTransactionManager(pool)
	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(pool), store, nil, tx, logger)
	timesheetSvc := timesheet.NewService(postgres.NewTimesheetRepository(pool), nil, tx)

	ids := make([]string, len(employees))
	for i, e := range employees {
		id, err := seedOne(ctx, employeeSvc, e)
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", e.email, err)
		}
		ids[i] = id
		logger.Info(ctx, "employee ready", "email", e.email, "id", id)
	}

	for _, ts := range timesheets {
		start, err := time.Parse(time.DateTime, ts.start)
		if err != nil {
			return err
		}
		end, err := time.Parse(time.DateTime, ts.end)
		if err != nil {
			return err
		}
		if _, err := timesheetSvc.CreateTimesheet(ctx, timesheet.CreateTimesheetInput{
			EmployeeID: ids[ts.employee],
			StartTime:  &start,
			EndTime:    &end,
			Summary:    ts.summary,
		}); err != nil {
			return fmt.Errorf("seed timesheet %q: %w", ts.summary, err)
		}
	}
	return nil
}

// seedOne は社員を作成します。同じメールアドレスが既にあれば既存の ID を返します。
func seedOne(ctx context.Context, svc employee.UseCase, e seedEmployee) (string, error) {
	dob, err := time.Parse(time.DateOnly, e.dateOfBirth)
	if err != nil {
		return "", err
	}
	start, err := time.Parse(time.DateOnly, e.startDate)
	if err != nil {
		return "", err
	}

	created, err := svc.CreateEmployee(ctx, employee.CreateEmployeeInput{Fields: employee.Fields{
		FullName:    e.fullName,
		Email:       e.email,
		PhoneNumber: e.phone,
		DateOfBirth: &dob,
		StartDate:   &start,
		JobTitle:    e.jobTitle,
		Department:  e.department,
		Salary:      e.salary,
	}})
	if err == nil {
		return created.ID, nil
	}
	if !errors.Is(err, employee.ErrEmailAlreadyExists) {
		return "", err
	}

	res, err := svc.ListEmployees(ctx, employee.ListEmployeesInput{Search: e.email, PageSize: 1})
	if err != nil {
		return "", err
	}
	if len(res.Employees) == 0 {
		return "", employee.ErrEmployeeNotFound
	}
	return res.Employees[0].ID, nil
}
