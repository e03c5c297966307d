package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ogurasousui/codex-hr-clean-arch/internal/core/attachment"
)

const (
	dateLayout     = "2006-01-02"
	calendarLayout = "2006-01-02 15:04"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

var errMalformed = errors.New("malformed value")

func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, badInput(field, fmt.Errorf("%w: expected YYYY-MM-DD", errMalformed))
	}
	return &t, nil
}

func parseTime(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, badInput(field, errMalformed)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// uploads は開いた multipart ファイルを保持し、Close でまとめて閉じます。
type uploads struct {
	files []multipart.File
}

func (u *uploads) open(headers []*multipart.FileHeader) ([]attachment.Upload, error) {
	out := make([]attachment.Upload, 0, len(headers))
	for _, h := range headers {
		if h == nil || h.Size == 0 {
			continue
		}
		f, err := h.Open()
		if err != nil {
			return nil, badInput(h.Filename, err)
		}
		u.files = append(u.files, f)
		out = append(out, attachment.Upload{Name: h.Filename, Size: h.Size, Content: f})
	}
	return out, nil
}

func (u *uploads) first(headers []*multipart.FileHeader) (*attachment.Upload, error) {
	opened, err := u.open(headers)
	if err != nil || len(opened) == 0 {
		return nil, err
	}
	return &opened[0], nil
}

func (u *uploads) Close() error {
	var errs []error
	for _, f := range u.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	u.files = nil
	return errors.Join(errs...)
}

var _ io.Closer = (*uploads)(nil)

// multipartFiles は multipart リクエストであれば添付ファイルを返します。それ以外は空です。
func multipartFiles(c *fiber.Ctx) (map[string][]*multipart.FileHeader, error) {
	if !strings.HasPrefix(strings.ToLower(string(c.Request().Header.ContentType())), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, badInput("body", err)
	}
	return form.File, nil
}
