package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/market-backend/internal/storage"
)

func TestLocalStorage_UploadAndURL(t *testing.T) {
	root := t.TempDir()
	s, err := storage.NewLocalStorage(root, "http://localhost:8080/media/")
	require.NoError(t, err)

	err = s.Upload(context.Background(), "avatar/u1/face.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "avatar", "u1", "face.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "http://localhost:8080/media/avatar/u1/face.png", s.PublicURL("avatar/u1/face.png"))
}

func TestLocalStorage_KeyStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	s, err := storage.NewLocalStorage(root, "/media")
	require.NoError(t, err)

	require.NoError(t, s.Upload(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain"))
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Upload(ctx, "a.txt", strings.NewReader("x"), "text/plain"), context.Canceled)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", storage.SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file", storage.SanitizeFilename(""))
	assert.Equal(t, "report.pdf", storage.SanitizeFilename("report.pdf"))
}
