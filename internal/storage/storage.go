package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/SAP-F-2025/quiz-service/internal/config"
)

// Provider stores quiz images and returns the URL they are served from
type Provider interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// ObjectKey builds a collision-free key for an image attached to a quiz,
// keeping the original extension.
func ObjectKey(quizID uint, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("quizzes", fmt.Sprint(quizID), uuid.NewString()+ext)
}

func New(cfg *config.StorageConfig) (Provider, error) {
	switch cfg.Type {
	case "minio":
		p, err := NewMinioProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "local", "":
		return &LocalProvider{Root: cfg.LocalPath, PublicURL: cfg.PublicURL}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

type LocalProvider struct {
	Root      string
	PublicURL string
}

func (p *LocalProvider) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	dst := filepath.Join(p.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.GetURL(key), nil
}

func (p *LocalProvider) Delete(_ context.Context, key string) error {
	return os.Remove(filepath.Join(p.Root, filepath.FromSlash(key)))
}

func (p *LocalProvider) GetURL(key string) string {
	return strings.TrimRight(p.PublicURL, "/") + "/" + key
}

type MinioProvider struct {
	bucket   string
	endpoint string
	secure   bool
	client   *minio.Client
}

func NewMinioProvider(cfg *config.StorageConfig) (*MinioProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioProvider{
		bucket:   cfg.MinioBucket,
		endpoint: cfg.MinioEndpoint,
		secure:   cfg.MinioUseSSL,
		client:   client,
	}, nil
}

// EnsureBucket creates the bucket on first start
func (p *MinioProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	return p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{})
}

func (p *MinioProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return p.GetURL(key), nil
}

func (p *MinioProvider) Delete(ctx context.Context, key string) error {
	return p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{})
}

func (p *MinioProvider) GetURL(key string) string {
	scheme := "http"
	if p.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, p.endpoint, p.bucket, key)
}
