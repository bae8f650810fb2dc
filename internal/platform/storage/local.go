package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

// LocalRoute is where the HTTP server exposes a local bucket's directory.
const LocalRoute = "/uploads"

type localBucket struct {
	log        *logger.Logger
	dir        string
	publicBase string
}

func newLocalBucket(cfg Config, log *logger.Logger) (*localBucket, error) {
	dir, err := filepath.Abs(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("resolve LOCAL_UPLOAD_DIR: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create LOCAL_UPLOAD_DIR: %w", err)
	}
	return &localBucket{
		log:        log,
		dir:        dir,
		publicBase: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

func (b *localBucket) path(key string) (string, error) {
	key = cleanKey(key)
	p := filepath.Join(b.dir, filepath.FromSlash(key))
	if key == "" || !strings.HasPrefix(p, b.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

func (b *localBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return f.Close()
}

func (b *localBucket) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *localBucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (b *localBucket) PublicURL(key string) string {
	return b.publicBase + LocalRoute + "/" + cleanKey(key)
}

// Dir is the directory backing the bucket.
func (b *localBucket) Dir() string { return b.dir }

// LocalDir returns the backing directory when bucket is filesystem based.
func LocalDir(bucket Bucket) (string, bool) {
	lb, ok := bucket.(*localBucket)
	if !ok {
		return "", false
	}
	return lb.Dir(), true
}
