package handler

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/adapters/export/xlsx"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/employee"
)

// EmployeeHandler は社員 API の HTTP 実装です。
type EmployeeHandler struct {
	svc employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

// Register はルーティングを登録します。
func (h *EmployeeHandler) Register(r fiber.Router) {
	r.Get("/", h.List)
	r.Get("/export.xlsx", h.Export)
	r.Post("/", h.Create)
	r.Post("/validate", h.Validate)
	r.Get("/:id", h.Get)
	r.Put("/:id", h.Update)
	r.Delete("/:id", h.Delete)
}

type employeeForm struct {
	FullName          string   `json:"full_name" form:"full_name"`
	Email             string   `json:"email" form:"email"`
	PhoneNumber       string   `json:"phone_number" form:"phone_number"`
	DateOfBirth       string   `json:"date_of_birth" form:"date_of_birth"`
	StartDate         string   `json:"start_date" form:"start_date"`
	EndDate           string   `json:"end_date" form:"end_date"`
	JobTitle          string   `json:"job_title" form:"job_title"`
	Department        string   `json:"department" form:"department"`
	Salary            string   `json:"salary" form:"salary"`
	ExistingPhoto     string   `json:"existing_photo" form:"existing_photo"`
	ExistingDocuments []string `json:"existing_documents" form:"existing_documents"`
}

type attachmentResponse struct {
	OriginalName string `json:"originalName"`
	StoredPath   string `json:"storedPath"`
}

type employeeResponse struct {
	ID          string               `json:"id"`
	FullName    string               `json:"full_name"`
	Email       string               `json:"email"`
	PhoneNumber string               `json:"phone_number"`
	DateOfBirth string               `json:"date_of_birth"`
	StartDate   string               `json:"start_date"`
	EndDate     *string              `json:"end_date"`
	JobTitle    string               `json:"job_title"`
	Department  string               `json:"department"`
	Salary      *float64             `json:"salary"`
	Photo       *attachmentResponse  `json:"photo"`
	Documents   []attachmentResponse `json:"documents"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

type listEmployeesResponse struct {
	Employees     []employeeResponse `json:"employees"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

type validateResponse struct {
	Errors map[string]string `json:"errors"`
}

// List は社員一覧を返します。
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	res, err := h.svc.ListEmployees(c.UserContext(), listEmployeesInput(c))
	if err != nil {
		return err
	}

	out := listEmployeesResponse{
		Employees:     make([]employeeResponse, 0, len(res.Employees)),
		NextPageToken: res.NextPageToken,
	}
	for _, e := range res.Employees {
		out.Employees = append(out.Employees, toEmployeeResponse(e))
	}
	return c.JSON(out)
}

// Export は検索条件に合う全社員を xlsx で返します。
func (h *EmployeeHandler) Export(c *fiber.Ctx) error {
	employees, err := h.svc.ListAllEmployees(c.UserContext(), listEmployeesInput(c))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := xlsx.WriteEmployees(&buf, employees); err != nil {
		return err
	}

	c.Attachment("employees.xlsx")
	c.Set(fiber.HeaderContentType, xlsx.ContentType)
	return c.Send(buf.Bytes())
}

// Create は社員を作成します。
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	form, err := parseEmployeeForm(c)
	if err != nil {
		return err
	}
	fields, err := form.fields()
	if err != nil {
		return err
	}

	files, err := multipartFiles(c)
	if err != nil {
		return err
	}
	var up uploads
	defer up.Close()

	photo, err := up.first(files["photo"])
	if err != nil {
		return err
	}
	docs, err := up.open(files["documents"])
	if err != nil {
		return err
	}

	created, err := h.svc.CreateEmployee(c.UserContext(), employee.CreateEmployeeInput{
		Fields:    fields,
		Photo:     photo,
		Documents: docs,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(created))
}

// Validate はフォーム入力中の即時検証結果を返します。
func (h *EmployeeHandler) Validate(c *fiber.Ctx) error {
	form, err := parseEmployeeForm(c)
	if err != nil {
		return err
	}
	fields, err := form.fields()
	if err != nil {
		return err
	}

	return c.JSON(validateResponse{Errors: h.svc.CheckEmployee(c.UserContext(), fields)})
}

// Get は社員を取得します。
func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	found, err := h.svc.GetEmployee(c.UserContext(), employee.GetEmployeeInput{ID: c.Params("id")})
	if err != nil {
		return err
	}
	return c.JSON(toEmployeeResponse(found))
}

// Update は社員を編集します。添付は existing_photo・existing_documents と新規ファイルで最終状態を指定します。
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	form, err := parseEmployeeForm(c)
	if err != nil {
		return err
	}
	fields, err := form.fields()
	if err != nil {
		return err
	}

	files, err := multipartFiles(c)
	if err != nil {
		return err
	}
	var up uploads
	defer up.Close()

	photo, err := up.first(files["photo"])
	if err != nil {
		return err
	}
	docs, err := up.open(files["documents"])
	if err != nil {
		return err
	}

	updated, err := h.svc.UpdateEmployee(c.UserContext(), employee.UpdateEmployeeInput{
		ID:            c.Params("id"),
		Fields:        fields,
		KeptPhoto:     form.ExistingPhoto,
		KeptDocuments: nonEmpty(form.ExistingDocuments),
		NewPhoto:      photo,
		NewDocuments:  docs,
	})
	if err != nil {
		return err
	}

	return c.JSON(toEmployeeResponse(updated))
}

// Delete は社員を削除します。
func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteEmployee(c.UserContext(), employee.DeleteEmployeeInput{ID: c.Params("id")}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseEmployeeForm(c *fiber.Ctx) (*employeeForm, error) {
	var form employeeForm
	if len(c.Body()) == 0 {
		return &form, nil
	}
	if err := c.BodyParser(&form); err != nil {
		return nil, badInput("body", err)
	}
	return &form, nil
}

func (f *employeeForm) fields() (employee.Fields, error) {
	dob, err := parseDate("date_of_birth", f.DateOfBirth)
	if err != nil {
		return employee.Fields{}, err
	}
	start, err := parseDate("start_date", f.StartDate)
	if err != nil {
		return employee.Fields{}, err
	}
	end, err := parseDate("end_date", f.EndDate)
	if err != nil {
		return employee.Fields{}, err
	}

	return employee.Fields{
		FullName:    f.FullName,
		Email:       f.Email,
		PhoneNumber: f.PhoneNumber,
		DateOfBirth: dob,
		StartDate:   start,
		EndDate:     end,
		JobTitle:    f.JobTitle,
		Department:  f.Department,
		Salary:      f.Salary,
	}, nil
}

func listEmployeesInput(c *fiber.Ctx) employee.ListEmployeesInput {
	return employee.ListEmployeesInput{
		Search:     c.Query("q"),
		Department: c.Query("department"),
		Sort:       employee.SortField(c.Query("sort")),
		PageSize:   c.QueryInt("page_size"),
		PageToken:  c.Query("page_token"),
	}
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	out := employeeResponse{
		ID:          e.ID,
		FullName:    e.FullName,
		Email:       e.Email,
		PhoneNumber: e.PhoneNumber,
		DateOfBirth: e.DateOfBirth.Format(dateLayout),
		StartDate:   e.StartDate.Format(dateLayout),
		EndDate:     formatDate(e.EndDate),
		JobTitle:    e.JobTitle,
		Department:  e.Department,
		Salary:      e.Salary,
		Documents:   make([]attachmentResponse, 0, len(e.Documents)),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Photo != nil {
		p := toAttachmentResponse(*e.Photo)
		out.Photo = &p
	}
	for _, d := range e.Documents {
		out.Documents = append(out.Documents, toAttachmentResponse(d))
	}
	return out
}

func toAttachmentResponse(a attachment.Attachment) attachmentResponse {
	return attachmentResponse{OriginalName: a.OriginalName, StoredPath: a.StoredPath}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
