package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	require.NoError(t, err)
	return s
}

func TestStore_StoreWritesUnderRoot(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Store(ctx, strings.NewReader("resume"), ".pdf")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored, "/uploads/"), "stored path %s", stored)
	assert.Equal(t, ".pdf", filepath.Ext(stored))

	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.Base(stored)))
	require.NoError(t, err)
	assert.Equal(t, "resume", string(data))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_GeneratesDistinctNames(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Store(ctx, strings.NewReader("a"), ".jpg")
	require.NoError(t, err)
	second, err := s.Store(ctx, strings.NewReader("a"), ".jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Store(ctx, strings.NewReader("x"), ".txt")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, stored))
	require.NoError(t, s.Delete(ctx, stored))

	exists, err := s.Exists(stored)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_DeleteRejectsPathsOutsideRoot(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	outside := filepath.Join(filepath.Dir(s.Root()), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o600))

	for _, p := range []string{
		"/uploads/../secret.txt",
		"/uploads/..",
		"/uploads/",
		"/uploads/sub/file.txt",
		"/other/file.txt",
		"secret.txt",
		`/uploads/..\secret.txt`,
		"",
	} {
		err := s.Delete(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", p)
	}

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside root must survive")
}

func TestSanitizeExt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		".pdf":                   ".pdf",
		"JPG":                    ".JPG",
		"":                       "",
		".":                      "",
		"./../x":                 ".x",
		".averyveryverylongext1": ".averyveryverylon",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeExt(in), "input %q", in)
	}
}
