package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageStaysUnderRoot(t *testing.T) {
	root := t.TempDir()
	storage := NewLocalStorage(filepath.Join(root, "media"), "http://localhost/storage")
	ctx := context.Background()

	n, err := storage.Put(ctx, "../../escape.txt", strings.NewReader("data"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = os.Stat(filepath.Join(root, "media", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, storage.Delete(ctx, "escape.txt"))
	require.NoError(t, storage.Delete(ctx, "escape.txt"), "deleting a missing file is not an error")

	_, err = storage.Put(ctx, "/", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}
