package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"visitor_access_go/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStorage stores captured visitor photos
type PhotoStorage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// NewPhotoStorage returns R2 storage when all R2 settings are present and
// the bucket answers, local disk otherwise.
func NewPhotoStorage(cfg *config.Config) PhotoStorage {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" {
		log.Printf("Photo storage: local filesystem (%s)", cfg.UploadDir)
		return NewLocalPhotoStorage(cfg.UploadDir)
	}

	r2, err := NewR2PhotoStorage(cfg)
	if err != nil {
		log.Printf("[WARNING] R2 setup failed: %v. Falling back to local photo storage.", err)
		return NewLocalPhotoStorage(cfg.UploadDir)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := r2.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r2.bucket)}); err != nil {
		log.Printf("[WARNING] R2 bucket %s unreachable: %v. Falling back to local photo storage.", r2.bucket, err)
		return NewLocalPhotoStorage(cfg.UploadDir)
	}

	log.Printf("Photo storage: Cloudflare R2 (bucket %s)", r2.bucket)
	return r2
}

// R2PhotoStorage keeps photos in a Cloudflare R2 bucket through the S3 API
type R2PhotoStorage struct {
	client *s3.Client
	bucket string
}

func NewR2PhotoStorage(cfg *config.Config) (*R2PhotoStorage, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2PhotoStorage{client: client, bucket: cfg.R2BucketName}, nil
}

func (r *R2PhotoStorage) Name() string { return "r2" }

func (r *R2PhotoStorage) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to R2: %w", key, err)
	}
	return nil
}

func (r *R2PhotoStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("reading %s from R2: %w", key, err)
	}
	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	return out.Body, contentType, nil
}

func (r *R2PhotoStorage) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s from R2: %w", key, err)
	}
	return nil
}

// LocalPhotoStorage keeps photos under a directory on disk
type LocalPhotoStorage struct {
	baseDir string
}

func NewLocalPhotoStorage(baseDir string) *LocalPhotoStorage {
	return &LocalPhotoStorage{baseDir: baseDir}
}

func (l *LocalPhotoStorage) Name() string { return "local" }

// path resolves key inside baseDir and rejects keys escaping it
func (l *LocalPhotoStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.baseDir, clean), nil
}

func (l *LocalPhotoStorage) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating photo directory: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("creating photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return fmt.Errorf("writing photo file: %w", err)
	}
	return nil
}

func (l *LocalPhotoStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	full, err := l.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, "", fmt.Errorf("opening photo: %w", err)
	}
	return f, contentTypeForKey(key), nil
}

func (l *LocalPhotoStorage) Delete(ctx context.Context, key string) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
