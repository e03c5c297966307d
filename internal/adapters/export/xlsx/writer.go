// Package xlsx は社員とタイムシートを Excel ブックとして書き出します。
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
	"github.com/xuri/excelize/v2"
)

const (
	EmployeesSheet  = "Employees"
	TimesheetsSheet = "Timesheets"

	// ContentType は xlsx ダウンロードの MIME タイプです。
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var employeeHeader = []string{
	"Full Name", "Email", "Phone Number", "Date of Birth", "Start Date", "End Date",
	"Job Title", "Department", "Salary", "Photo", "Documents",
}

var timesheetHeader = []string{"Employee", "Start Time", "End Time", "Hours", "Summary"}

// WriteEmployees は社員一覧を 1 シートのブックとして w に書き込みます。
func WriteEmployees(w io.Writer, employees []*employee.Employee) error {
	return writeSheet(w, EmployeesSheet, employeeHeader, len(employees), func(i int) []any {
		e := employees[i]
		row := []any{
			e.FullName,
			e.Email,
			e.PhoneNumber,
			e.DateOfBirth.Format(dateLayout),
			e.StartDate.Format(dateLayout),
			"",
			e.JobTitle,
			e.Department,
			"",
			"",
			documentNames(e),
		}
		if e.EndDate != nil {
			row[5] = e.EndDate.Format(dateLayout)
		}
		if e.Salary != nil {
			row[8] = *e.Salary
		}
		if e.Photo != nil {
			row[9] = e.Photo.OriginalName
		}
		return row
	})
}

// WriteTimesheets はタイムシート一覧を 1 シートのブックとして w に書き込みます。
func WriteTimesheets(w io.Writer, timesheets []*timesheet.Timesheet) error {
	return writeSheet(w, TimesheetsSheet, timesheetHeader, len(timesheets), func(i int) []any {
		ts := timesheets[i]
		return []any{
			ts.EmployeeName,
			ts.StartTime.Format(dateTimeLayout),
			ts.EndTime.Format(dateTimeLayout),
			ts.EndTime.Sub(ts.StartTime).Hours(),
			ts.Summary,
		}
	})
}

func writeSheet(w io.Writer, sheet string, header []string, n int, row func(int) []any) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("xlsx: close: %w", cerr)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	headerCells := make([]any, 0, len(header))
	for _, h := range header {
		headerCells = append(headerCells, excelize.Cell{StyleID: bold, Value: h})
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return fmt.Errorf("xlsx: header row: %w", err)
	}

	for i := 0; i < n; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: cell name: %w", err)
		}
		if err := sw.SetRow(cell, row(i)); err != nil {
			return fmt.Errorf("xlsx: row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func documentNames(e *employee.Employee) string {
	names := make([]string, 0, len(e.Documents))
	for _, d := range e.Documents {
		names = append(names, d.OriginalName)
	}
	return strings.Join(names, ", ")
}
