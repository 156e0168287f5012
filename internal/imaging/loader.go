package imaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"claim-evaluation-service/internal/database/minio"
	"claim-evaluation-service/internal/models"
)

// Loader resolves an image reference to raw bytes. The evaluation core
// never cares whether images live on disk or in object storage.
type Loader interface {
	Load(ctx context.Context, ref string) ([]byte, error)
}

// FileLoader resolves image refs against a base directory.
type FileLoader struct {
	BaseDir string
}

func NewFileLoader(baseDir string) *FileLoader {
	return &FileLoader{BaseDir: baseDir}
}

func (l *FileLoader) Load(_ context.Context, ref string) ([]byte, error) {
	path := ref
	if !filepath.IsAbs(ref) {
		path = filepath.Join(l.BaseDir, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: image %s", models.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read image %s: %w", ref, err)
	}
	return data, nil
}

// MinioLoader resolves image refs as object names in a MinIO bucket.
type MinioLoader struct {
	client *minio.MinioClient
	bucket string
}

func NewMinioLoader(client *minio.MinioClient, bucket string) *MinioLoader {
	return &MinioLoader{client: client, bucket: bucket}
}

func (l *MinioLoader) Load(ctx context.Context, ref string) ([]byte, error) {
	data, err := l.client.GetBytes(ctx, l.bucket, ref)
	if err != nil {
		// minio-go reports missing keys inside the error chain; treat
		// them as NotFound so the caller gets a 404 rather than a 500.
		if strings.Contains(err.Error(), "key does not exist") {
			return nil, fmt.Errorf("%w: image %s", models.ErrNotFound, ref)
		}
		return nil, err
	}
	return data, nil
}
