package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *LocalImageStore {
	t.Helper()
	s, err := NewLocalImageStore(Config{
		Dir:          t.TempDir(),
		MaxBytes:     8,
		AllowedTypes: []string{"image/jpeg", "image/png"},
	})
	require.NoError(t, err)
	return s
}

func TestLocalImageStore_Save(t *testing.T) {
	s := newStore(t)

	url, err := s.Save(context.Background(), "items", "photo.JPG", "image/jpeg", strings.NewReader("12345678"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/items/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	data, err := os.ReadFile(filepath.Join(s.Dir(), "items", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(data))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(s.Dir(), "items", filepath.Base(url)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalImageStore_Rejects(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "items", "a.gif", "image/gif", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = s.Save(ctx, "items", "a.png", "image/png", strings.NewReader("123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Dir(), "items"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, s.Delete(ctx, "/elsewhere/a.png"))
	assert.Error(t, s.Delete(ctx, "/uploads/../secret"))
}
