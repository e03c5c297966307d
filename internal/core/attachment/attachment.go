package attachment

import (
	"context"
	"errors"
	"io"
)

// ErrStorage はファイル保存の失敗を表します。
var ErrStorage = errors.New("attachment: storage failure")

// Attachment は社員に紐づく保存済みファイルへの参照です。
type Attachment struct {
	OriginalName string
	StoredPath   string
}

// Upload はクライアントから送信された新規ファイルです。
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Store はファイル保存先の抽象です。
type Store interface {
	Store(ctx context.Context, r io.Reader, ext string) (string, error)
	Delete(ctx context.Context, storedPath string) error
}

// Attachments は写真と書類を一つのリストにまとめます。
func Attachments(photo *Attachment, documents []Attachment) []Attachment {
	out := make([]Attachment, 0, len(documents)+1)
	if photo != nil && photo.StoredPath != "" {
		out = append(out, *photo)
	}
	return append(out, documents...)
}

// StoredPaths は添付の保存パスだけを取り出します。
func StoredPaths(items []Attachment) []string {
	paths := make([]string, 0, len(items))
	for _, a := range items {
		if a.StoredPath != "" {
			paths = append(paths, a.StoredPath)
		}
	}
	return paths
}
