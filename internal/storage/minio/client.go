package minio

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dtroode/erp-sessions/internal/config"
	"github.com/dtroode/erp-sessions/internal/model"
)

const auditContentType = "application/x-ndjson"

// minioAPI is the subset of *minio.Client the archive uses.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var (
	_ minioAPI      = (*minio.Client)(nil)
	_ model.Archive = (*Client)(nil)
)

// Client stores retired-session audit batches as objects in one bucket.
type Client struct {
	api    minioAPI
	bucket string
}

// NewArchive connects to the object store described by cfg and ensures the bucket exists.
func NewArchive(ctx context.Context, cfg config.Archive) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewClientWithAPI(ctx, client, cfg.Bucket)
}

// NewClientWithAPI builds a Client over any minioAPI implementation.
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket string) (*Client, error) {
	c := &Client{
		api:    api,
		bucket: bucket,
	}

	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload writes one audit batch under key. Readers exposing Len are uploaded with a known size.
func (c *Client) Upload(ctx context.Context, key string, reader io.Reader) error {
	size := int64(-1)
	if l, ok := reader.(interface{ Len() int }); ok {
		size = int64(l.Len())
	}

	_, err := c.api.PutObject(ctx, c.bucket, path.Clean(key), reader, size, minio.PutObjectOptions{
		ContentType: auditContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}
