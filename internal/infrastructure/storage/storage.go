package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ObjectStore is the path-addressed blob store documents are written to.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, body []byte) error
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Ping(ctx context.Context) error
}

// ErrNotConfigured is returned by stores missing credentials.
var ErrNotConfigured = errors.New("storage: not configured")

// Config selects and configures a backend.
type Config struct {
	Backend     string // supabase | s3
	Bucket      string
	SupabaseURL string
	ServiceKey  string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// New builds the configured ObjectStore.
func New(cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case "", "supabase":
		return &SupabaseStore{BaseURL: cfg.SupabaseURL, ServiceKey: cfg.ServiceKey, Bucket: cfg.Bucket}, nil
	case "s3":
		return NewS3Store(S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.Bucket,
		})
	}
	return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
}
