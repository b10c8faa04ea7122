package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/revlinehq/revline-api/internal/config"
)

// Bucket is a thin wrapper around the minio client bound to one logical
// bucket. The upload flow holds two of these: full photos and thumbnails.
type Bucket struct {
	client *minio.Client
	name   string
}

// NewClient creates the shared minio client for the configured endpoint.
func NewClient(cfg *config.StorageConfig) (*minio.Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	return mc, nil
}

// NewBucket binds the client to a bucket and ensures the bucket exists.
func NewBucket(mc *minio.Client, name string) (*Bucket, error) {
	b := &Bucket{client: mc, name: name}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, name, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, name)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return b, nil
}

// Upload writes data from reader under the provided key.
func (b *Bucket) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.name, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Download returns a ReadCloser for the stored object.
func (b *Bucket) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.name, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (b *Bucket) PresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := b.client.PresignedGetObject(ctx, b.name, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
