package handler

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/export/xlsx"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/timesheet"
)

// TimesheetHandler はタイムシート API の HTTP 実装です。
type TimesheetHandler struct {
	svc timesheet.UseCase
}

// NewTimesheetHandler は TimesheetHandler を生成します。
func NewTimesheetHandler(svc timesheet.UseCase) *TimesheetHandler {
	return &TimesheetHandler{svc: svc}
}

// Register はルーティングを登録します。
func (h *TimesheetHandler) Register(r fiber.Router) {
	r.Get("/", h.List)
	r.Get("/calendar", h.Calendar)
	r.Get("/export.xlsx", h.Export)
	r.Post("/", h.Create)
	r.Get("/:id", h.Get)
	r.Put("/:id", h.Update)
	r.Delete("/:id", h.Delete)
}

type timesheetForm struct {
	EmployeeID string `json:"employee_id" form:"employee_id"`
	StartTime  string `json:"start_time" form:"start_time"`
	EndTime    string `json:"end_time" form:"end_time"`
	Summary    string `json:"summary" form:"summary"`
}

type timesheetResponse struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type listTimesheetsResponse struct {
	Timesheets    []timesheetResponse `json:"timesheets"`
	NextPageToken string              `json:"next_page_token,omitempty"`
}

// calendarEvent はカレンダー表示用のイベントです。
type calendarEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// List はタイムシート一覧を返します。
func (h *TimesheetHandler) List(c *fiber.Ctx) error {
	in, err := listTimesheetsInput(c)
	if err != nil {
		return err
	}

	res, err := h.svc.ListTimesheets(c.UserContext(), in)
	if err != nil {
		return err
	}

	out := listTimesheetsResponse{
		Timesheets:    make([]timesheetResponse, 0, len(res.Timesheets)),
		NextPageToken: res.NextPageToken,
	}
	for _, ts := range res.Timesheets {
		out.Timesheets = append(out.Timesheets, toTimesheetResponse(ts))
	}
	return c.JSON(out)
}

// Calendar は [from, to) と重なるタイムシートをカレンダーイベントとして返します。
func (h *TimesheetHandler) Calendar(c *fiber.Ctx) error {
	in, err := listTimesheetsInput(c)
	if err != nil {
		return err
	}

	all, err := h.svc.ListAllTimesheets(c.UserContext(), in)
	if err != nil {
		return err
	}

	events := make([]calendarEvent, 0, len(all))
	for _, ts := range all {
		events = append(events, calendarEvent{
			ID:    ts.ID,
			Title: ts.EmployeeName + ": " + ts.Summary,
			Start: ts.StartTime.Format(calendarLayout),
			End:   ts.EndTime.Format(calendarLayout),
		})
	}
	return c.JSON(events)
}

// Export は条件に合う全タイムシートを xlsx で返します。
func (h *TimesheetHandler) Export(c *fiber.Ctx) error {
	in, err := listTimesheetsInput(c)
	if err != nil {
		return err
	}

	all, err := h.svc.ListAllTimesheets(c.UserContext(), in)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := xlsx.WriteTimesheets(&buf, all); err != nil {
		return err
	}

	c.Attachment("timesheets.xlsx")
	c.Set(fiber.HeaderContentType, xlsx.ContentType)
	return c.Send(buf.Bytes())
}

// Create はタイムシートを作成します。
func (h *TimesheetHandler) Create(c *fiber.Ctx) error {
	form, start, end, err := parseTimesheetForm(c)
	if err != nil {
		return err
	}

	created, err := h.svc.CreateTimesheet(c.UserContext(), timesheet.CreateTimesheetInput{
		EmployeeID: form.EmployeeID,
		StartTime:  start,
		EndTime:    end,
		Summary:    form.Summary,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toTimesheetResponse(created))
}

// Get はタイムシートを取得します。
func (h *TimesheetHandler) Get(c *fiber.Ctx) error {
	found, err := h.svc.GetTimesheet(c.UserContext(), timesheet.GetTimesheetInput{ID: c.Params("id")})
	if err != nil {
		return err
	}
	return c.JSON(toTimesheetResponse(found))
}

// Update はタイムシートを置き換えます。
func (h *TimesheetHandler) Update(c *fiber.Ctx) error {
	form, start, end, err := parseTimesheetForm(c)
	if err != nil {
		return err
	}

	updated, err := h.svc.UpdateTimesheet(c.UserContext(), timesheet.UpdateTimesheetInput{
		ID:         c.Params("id"),
		EmployeeID: form.EmployeeID,
		StartTime:  start,
		EndTime:    end,
		Summary:    form.Summary,
	})
	if err != nil {
		return err
	}

	return c.JSON(toTimesheetResponse(updated))
}

// Delete はタイムシートを削除します。
func (h *TimesheetHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteTimesheet(c.UserContext(), timesheet.DeleteTimesheetInput{ID: c.Params("id")}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTimesheetForm(c *fiber.Ctx) (*timesheetForm, *time.Time, *time.Time, error) {
	var form timesheetForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return nil, nil, nil, badInput("body", err)
		}
	}

	start, err := parseTime("start_time", form.StartTime)
	if err != nil {
		return nil, nil, nil, err
	}
	end, err := parseTime("end_time", form.EndTime)
	if err != nil {
		return nil, nil, nil, err
	}
	return &form, start, end, nil
}

func listTimesheetsInput(c *fiber.Ctx) (timesheet.ListTimesheetsInput, error) {
	from, err := parseTime("from", c.Query("from"))
	if err != nil {
		return timesheet.ListTimesheetsInput{}, err
	}
	to, err := parseTime("to", c.Query("to"))
	if err != nil {
		return timesheet.ListTimesheetsInput{}, err
	}

	return timesheet.ListTimesheetsInput{
		EmployeeID: c.Query("employee_id"),
		Search:     c.Query("q"),
		From:       from,
		To:         to,
		PageSize:   c.QueryInt("page_size"),
		PageToken:  c.Query("page_token"),
	}, nil
}

func toTimesheetResponse(ts *timesheet.Timesheet) timesheetResponse {
	return timesheetResponse{
		ID:           ts.ID,
		EmployeeID:   ts.EmployeeID,
		EmployeeName: ts.EmployeeName,
		StartTime:    ts.StartTime,
		EndTime:      ts.EndTime,
		Summary:      ts.Summary,
		CreatedAt:    ts.CreatedAt,
		UpdatedAt:    ts.UpdatedAt,
	}
}
