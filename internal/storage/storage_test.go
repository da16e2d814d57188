package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/config"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(42, "Diagram.PNG")
	assert.True(t, strings.HasPrefix(key, "quizzes/42/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey(42, "Diagram.PNG"))
}

func TestLocalProvider_UploadAndDelete(t *testing.T) {
	root := t.TempDir()
	p := &LocalProvider{Root: root, PublicURL: "/uploads/"}

	url, err := p.Upload(context.Background(), "quizzes/1/a.png", strings.NewReader("img"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/quizzes/1/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "quizzes", "1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	require.NoError(t, p.Delete(context.Background(), "quizzes/1/a.png"))
	_, err = os.Stat(filepath.Join(root, "quizzes", "1", "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestNew(t *testing.T) {
	p, err := New(&config.StorageConfig{Type: "local", LocalPath: t.TempDir(), PublicURL: "/u"})
	require.NoError(t, err)
	assert.IsType(t, &LocalProvider{}, p)

	p, err = New(&config.StorageConfig{Type: "minio", MinioEndpoint: "localhost:9000", MinioBucket: "quiz"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/quiz/k.png", p.GetURL("k.png"))

	_, err = New(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
