package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxExtLength = 16

// ErrInvalidPath はストア配下を指さない保存パスを表します。
var ErrInvalidPath = errors.New("local: stored path outside store root")

// Store はローカルディレクトリにファイルを保存する File Store 実装です。
type Store struct {
	root      string
	urlPrefix string
}

// New は root ディレクトリを作成し Store を返します。urlPrefix は保存パスの先頭に付与されます。
func New(root, urlPrefix string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local: root must be set")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local: resolve root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("local: mkdir %s: %w", abs, err)
	}

	prefix := "/" + strings.Trim(urlPrefix, "/")
	return &Store{root: abs, urlPrefix: prefix}, nil
}

// Root は保存先ディレクトリの絶対パスを返します。
func (s *Store) Root() string {
	return s.root
}

// URLPrefix は保存パスの接頭辞を返します。
func (s *Store) URLPrefix() string {
	return s.urlPrefix
}

// Store は r の内容を一意なファイル名で保存し、接頭辞付きの保存パスを返します。
func (s *Store) Store(ctx context.Context, r io.Reader, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("local: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("local: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("local: close: %w", err)
	}

	name := uuid.NewString() + sanitizeExt(ext)
	if err := os.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		cleanup()
		return "", fmt.Errorf("local: rename: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete は保存パスのファイルを削除します。存在しない場合も成功として扱います。
func (s *Store) Delete(ctx context.Context, storedPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(storedPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local: remove %s: %w", storedPath, err)
	}
	return nil
}

// Exists は保存パスのファイルが存在するかを返します。
func (s *Store) Exists(storedPath string) (bool, error) {
	full, err := s.resolve(storedPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) resolve(storedPath string) (string, error) {
	rel, ok := strings.CutPrefix(storedPath, s.urlPrefix+"/")
	if !ok || rel == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, storedPath)
	}
	if strings.ContainsAny(rel, `/\`) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, storedPath)
	}
	return filepath.Join(s.root, rel), nil
}

func sanitizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	var b strings.Builder
	for _, r := range ext {
		if b.Len() >= maxExtLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}
