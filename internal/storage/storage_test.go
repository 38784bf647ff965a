package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ithalat-ops/backoffice-api/internal/config"
	"github.com/ithalat-ops/backoffice-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestArchiveImplementations(t *testing.T) {
	var _ storage.Archive = (*storage.LocalArchive)(nil)
	var _ storage.Archive = (*storage.AzureBlobArchive)(nil)
	var _ storage.Archive = storage.DiscardArchive{}
}

func TestNewLocalArchive_CreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "uploads")

	archive, err := storage.NewLocalArchive(base)
	require.NoError(t, err)
	assert.NotNil(t, archive)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalArchive_RoundTrip(t *testing.T) {
	archive, err := storage.NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	content := []byte("A-100;Acme;12,5;USD\n")

	path, size, err := archive.Put(ctx, "rfq-quotes", "Acme Teklif (v2).CSV", "text/csv", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasPrefix(path, "rfq-quotes/"), path)
	assert.True(t, strings.HasSuffix(path, "-Acme_Teklif_v2.csv"), path)
	assert.Len(t, strings.Split(path, "/"), 4)

	rc, err := archive.Open(ctx, path)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, got)

	require.NoError(t, archive.Delete(ctx, path))
	_, err = archive.Open(ctx, path)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	// deleting twice is fine
	assert.NoError(t, archive.Delete(ctx, path))
}

func TestLocalArchive_PathsStayInsideBase(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "archive")
	archive, err := storage.NewLocalArchive(base)
	require.NoError(t, err)

	secret := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0600))

	_, err = archive.Open(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, archive.Delete(context.Background(), "../secret.txt"))
	_, err = os.Stat(secret)
	assert.NoError(t, err)

	_, err = archive.Open(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDiscardArchive(t *testing.T) {
	path, size, err := storage.DiscardArchive{}.Put(context.Background(), "x", "a.csv", "text/csv", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, int64(3), size)
}

func TestNewArchive_Modes(t *testing.T) {
	logger := zap.NewNop()

	a, err := storage.NewArchive(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalArchive{}, a)

	a, err = storage.NewArchive(&config.StorageConfig{Mode: "none"}, logger)
	require.NoError(t, err)
	assert.IsType(t, storage.DiscardArchive{}, a)

	_, err = storage.NewArchive(&config.StorageConfig{Mode: "azure"}, logger)
	assert.Error(t, err)

	_, err = storage.NewArchive(&config.StorageConfig{Mode: "ftp"}, logger)
	assert.Error(t, err)
}
