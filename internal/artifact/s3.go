package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config enumerates the object-storage options for document export.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store mirrors generated documents into object storage so rendered
// markdown can be served without touching the relational store.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put stores one document under <warehouseID>/<path>.md-style keys.
func (s *S3Store) Put(ctx context.Context, warehouseID, path string, content []byte) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	warehouseID = strings.TrimSpace(warehouseID)
	path = strings.TrimSpace(path)
	if warehouseID == "" {
		return fmt.Errorf("warehouse_id is required")
	}
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if content == nil {
		content = []byte{}
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey(warehouseID, path),
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: "text/markdown",
		})
	return err
}

// Get fetches one exported document.
func (s *S3Store) Get(ctx context.Context, warehouseID, path string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(warehouseID, path), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func objectKey(warehouseID, path string) string {
	return warehouseID + "/" + strings.TrimPrefix(path, "/")
}
