package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrValidationFailed はすべての入力検証エラーが満たす番兵エラーです。
var ErrValidationFailed = errors.New("validation failed")

const (
	FieldDateOfBirth = "date_of_birth"
	FieldSalary      = "salary"
	FieldDateOrder   = "date_order"
	FieldTimeOrder   = "time_order"
)

const (
	MessageAge            = "Age must be more than 18"
	MessageSalary         = "Salary must be more than 1,000"
	MessageDOBBeforeStart = "DOB must be before Start Date"
	MessageStartBeforeEnd = "Start Date must be before End Date"
	MessageTimeOrder      = "Start Time must be before End Time"
)

const (
	minimumAgeYears = 18
	salaryFloor     = 1000
)

// Violation は単一ルールの違反を表します。
type Violation struct {
	Field   string
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

// Is により errors.Is(err, ErrValidationFailed) が成立します。
func (v *Violation) Is(target error) bool {
	return target == ErrValidationFailed
}

// Violations は評価順に並んだ違反の集合です。
type Violations []*Violation

func (vs Violations) Error() string {
	msgs := make([]string, 0, len(vs))
	for _, v := range vs {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

func (vs Violations) Is(target error) bool {
	return target == ErrValidationFailed
}

// Fields はフィールド名からメッセージへの対応を返します。
func (vs Violations) Fields() map[string]string {
	out := make(map[string]string, len(vs))
	for _, v := range vs {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Message
		}
	}
	return out
}

// AsFields は err に含まれる違反をフィールド単位で取り出します。検証エラーでなければ nil を返します。
func AsFields(err error) map[string]string {
	var vs Violations
	if errors.As(err, &vs) {
		return vs.Fields()
	}
	var v *Violation
	if errors.As(err, &v) {
		return map[string]string{v.Field: v.Message}
	}
	return nil
}

// AgeCheck は today 時点で dob から暦上 18 年以上経過しているかを検証します。
func AgeCheck(dob, today time.Time) error {
	cutoff := dateOf(today).AddDate(-minimumAgeYears, 0, 0)
	if dateOf(dob).After(cutoff) {
		return &Violation{Field: FieldDateOfBirth, Message: MessageAge}
	}
	return nil
}

// SalaryFloor は給与文字列が有限の数値で 1000 以上であることを検証します。空文字は未入力として許容します。
func SalaryFloor(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < salaryFloor {
		return &Violation{Field: FieldSalary, Message: MessageSalary}
	}
	return nil
}

type dateRule struct {
	message string
	failed  func(dob, start time.Time, end *time.Time) bool
}

// dateOrderRules は評価順そのものが優先度です。先に違反したルールのメッセージだけを返します。
var dateOrderRules = []dateRule{
	{
		message: MessageDOBBeforeStart,
		failed: func(dob, start time.Time, _ *time.Time) bool {
			return !dob.IsZero() && !start.IsZero() && !dateOf(dob).Before(dateOf(start))
		},
	},
	{
		message: MessageStartBeforeEnd,
		failed: func(_, start time.Time, end *time.Time) bool {
			return end != nil && !end.IsZero() && !start.IsZero() && !dateOf(start).Before(dateOf(*end))
		},
	},
}

// DateOrder は DOB < 開始日 < 終了日 の順序を検証します。end が nil の場合は後半の検証を省略します。
func DateOrder(dob, start time.Time, end *time.Time) error {
	for _, rule := range dateOrderRules {
		if rule.failed(dob, start, end) {
			return &Violation{Field: FieldDateOrder, Message: rule.message}
		}
	}
	return nil
}

// TimeOrder はタイムシートの開始時刻が終了時刻より前であることを検証します。
func TimeOrder(start, end time.Time) error {
	if !start.Before(end) {
		return &Violation{Field: FieldTimeOrder, Message: MessageTimeOrder}
	}
	return nil
}

// EmployeeInput は社員フォームの検証対象フィールドです。
type EmployeeInput struct {
	DateOfBirth time.Time
	StartDate   time.Time
	EndDate     *time.Time
	Salary      string
}

// ValidateEmployee は年齢・給与・日付順序の各ルールを順に評価し、違反をまとめて返します。
func ValidateEmployee(in EmployeeInput, today time.Time) error {
	checks := []func() error{
		func() error {
			if in.DateOfBirth.IsZero() {
				return nil
			}
			return AgeCheck(in.DateOfBirth, today)
		},
		func() error { return SalaryFloor(in.Salary) },
		func() error { return DateOrder(in.DateOfBirth, in.StartDate, in.EndDate) },
	}

	var violations Violations
	for _, check := range checks {
		err := check()
		if err == nil {
			continue
		}
		var v *Violation
		if errors.As(err, &v) {
			violations = append(violations, v)
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return violations
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
