package awss3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/yungbote/fitprint-backend/internal/platform/ctxutil"
	"github.com/yungbote/fitprint-backend/internal/platform/logger"
	"github.com/yungbote/fitprint-backend/internal/platform/objectstorage"
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO/LocalStack style endpoints
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	WriteTimeout    time.Duration
	DeleteTimeout   time.Duration
}

// Store keeps outfit photos in an S3 (or S3-compatible) bucket.
type Store struct {
	log    *logger.Logger
	client *s3.Client
	cfg    Config
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing env var S3_BUCKET_NAME")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.DeleteTimeout <= 0 {
		cfg.DeleteTimeout = 30 * time.Second
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctxutil.Default(ctx), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
			o.UsePathStyle = true
		}
	})

	serviceLog := log.With("service", "aws.S3Store")
	serviceLog.Info("Object storage initialized", "mode", objectstorage.ModeS3, "bucket", cfg.Bucket, "region", cfg.Region, "endpoint", cfg.Endpoint)
	return &Store{log: serviceLog, client: client, cfg: cfg}, nil
}

func (s *Store) Bucket() string { return s.cfg.Bucket }

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.cfg.WriteTimeout)
	defer cancel()
	if contentType == "" {
		contentType = objectstorage.ContentTypeForKey(key)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %q: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.cfg.DeleteTimeout)
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return publicURL(s.cfg, key)
}

func publicURL(cfg Config, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if base := strings.TrimRight(cfg.PublicBaseURL, "/"); base != "" {
		return fmt.Sprintf("%s/%s", base, key)
	}
	if ep := strings.TrimRight(cfg.Endpoint, "/"); ep != "" {
		return fmt.Sprintf("%s/%s/%s", ep, cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
}
