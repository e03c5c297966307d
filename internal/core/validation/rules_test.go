package validation

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeCheck(t *testing.T) {
	t.Parallel()

	today := date(2025, 6, 15)

	cases := []struct {
		name    string
		dob     time.Time
		wantErr bool
	}{
		{name: "exactly 18", dob: date(2007, 6, 15), wantErr: false},
		{name: "one day short", dob: date(2007, 6, 16), wantErr: true},
		{name: "birthday later this year", dob: date(2007, 12, 1), wantErr: true},
		{name: "well over 18", dob: date(1985, 6, 15), wantErr: false},
		{name: "future date", dob: date(2030, 1, 1), wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := AgeCheck(tc.dob, today)
			if tc.wantErr {
				if err == nil || err.Error() != MessageAge {
					t.Fatalf("expected %q, got %v", MessageAge, err)
				}
				if !errors.Is(err, ErrValidationFailed) {
					t.Fatalf("expected ErrValidationFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSalaryFloor(t *testing.T) {
	t.Parallel()

	failing := []string{"999.99", "0", "-5000", "abc", "NaN", "Inf", "1e400"}
	for _, raw := range failing {
		err := SalaryFloor(raw)
		if err == nil || err.Error() != MessageSalary {
			t.Fatalf("SalaryFloor(%q): expected %q, got %v", raw, MessageSalary, err)
		}
	}

	passing := []string{"1000", "1000.01", " 80000 ", ""}
	for _, raw := range passing {
		if err := SalaryFloor(raw); err != nil {
			t.Fatalf("SalaryFloor(%q): unexpected error: %v", raw, err)
		}
	}
}

func TestDateOrder(t *testing.T) {
	t.Parallel()

	end := date(1990, 1, 1)
	laterEnd := date(2022, 1, 1)

	cases := []struct {
		name  string
		dob   time.Time
		start time.Time
		end   *time.Time
		want  string
	}{
		{name: "equal dob and start", dob: date(1990, 1, 1), start: date(1990, 1, 1), want: MessageDOBBeforeStart},
		{name: "dob after start", dob: date(2000, 1, 1), start: date(1990, 1, 1), want: MessageDOBBeforeStart},
		{name: "start equals end", dob: date(1980, 1, 1), start: date(1990, 1, 1), end: &end, want: MessageStartBeforeEnd},
		{name: "both violated reports first", dob: date(2000, 1, 1), start: date(1995, 1, 1), end: &end, want: MessageDOBBeforeStart},
		{name: "no end skips", dob: date(1980, 1, 1), start: date(2020, 1, 1)},
		{name: "valid with end", dob: date(1980, 1, 1), start: date(2020, 1, 1), end: &laterEnd},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := DateOrder(tc.dob, tc.start, tc.end)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestTimeOrder(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)
	if err := TimeOrder(start, start.Add(9*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := TimeOrder(start, start); err == nil || err.Error() != MessageTimeOrder {
		t.Fatalf("expected %q for equal times, got %v", MessageTimeOrder, err)
	}
}

func TestValidateEmployee_CollectsOneViolationPerRule(t *testing.T) {
	t.Parallel()

	today := date(2025, 6, 15)
	err := ValidateEmployee(EmployeeInput{
		DateOfBirth: date(2010, 1, 1),
		StartDate:   date(2005, 1, 1),
		Salary:      "500",
	}, today)

	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}

	fields := AsFields(err)
	want := map[string]string{
		FieldDateOfBirth: MessageAge,
		FieldSalary:      MessageSalary,
		FieldDateOrder:   MessageDOBBeforeStart,
	}
	if len(fields) != len(want) {
		t.Fatalf("expected %d violations, got %+v", len(want), fields)
	}
	for field, msg := range want {
		if fields[field] != msg {
			t.Errorf("field %s: expected %q, got %q", field, msg, fields[field])
		}
	}
}

func TestValidateEmployee_Valid(t *testing.T) {
	t.Parallel()

	end := date(2024, 1, 1)
	err := ValidateEmployee(EmployeeInput{
		DateOfBirth: date(1985, 6, 15),
		StartDate:   date(2021, 1, 15),
		EndDate:     &end,
		Salary:      "80000",
	}, date(2025, 6, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if AsFields(err) != nil {
		t.Fatalf("expected nil fields for nil error")
	}
}
