// Package storage reads and writes datasets in S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"gptenrich/internal/config"
	"gptenrich/internal/dataset"
	"gptenrich/internal/enrich"
)

// objectAPI is the subset of the MinIO client used by S3Service.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	getObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

type minioClient struct {
	*minio.Client
}

func (c minioClient) getObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	obj, err := c.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client objectAPI
	logger *slog.Logger
}

// NewS3Service connects to the MinIO endpoint described by cfg.
func NewS3Service(cfg config.StorageConfig) (*S3Service, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required storage settings: endpoint, access_key, secret_key")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := newS3Service(minioClient{client})
	s.logger.Info("connected to MinIO endpoint", "endpoint", cfg.Endpoint)
	return s, nil
}

func newS3Service(client objectAPI) *S3Service {
	return &S3Service{client: client, logger: slog.Default().With("component", "storage")}
}

// CreateBucket makes bucketName unless it already exists.
func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// ReadTable streams a CSV object into a table.
func (s *S3Service) ReadTable(ctx context.Context, bucketName, objectKey string) (*enrich.Table, error) {
	object, err := s.client.getObject(ctx, bucketName, objectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	table, err := dataset.ReadCSV(object)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s/%s: %w", bucketName, objectKey, err)
	}
	s.logger.Info("retrieved dataset", "bucket", bucketName, "key", objectKey, "rows", table.Len())
	return table, nil
}

// WriteTable stores t as CSV, overwriting any previous object.
func (s *S3Service) WriteTable(ctx context.Context, bucketName, objectKey string, t *enrich.Table) error {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, t); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return s.put(ctx, bucketName, objectKey, buf.Bytes(), "text/csv")
}

// WriteDescriptions stores the column descriptions as JSON.
func (s *S3Service) WriteDescriptions(ctx context.Context, bucketName, objectKey string, d map[string]string) error {
	var buf bytes.Buffer
	if err := dataset.WriteDescriptions(&buf, d); err != nil {
		return fmt.Errorf("failed to encode column descriptions: %w", err)
	}
	return s.put(ctx, bucketName, objectKey, buf.Bytes(), "application/json")
}

func (s *S3Service) put(ctx context.Context, bucketName, objectKey string, data []byte, contentType string) error {
	_, err := s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}
	s.logger.Info("stored object", "bucket", bucketName, "key", objectKey, "bytes", len(data))
	return nil
}
