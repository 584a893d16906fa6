// Package storage archives rendered invoice PDFs in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultRegion     = "us-east-1"
	defaultPresignTTL = 15 * time.Minute
	invoiceKeyPrefix  = "invoices/"
)

// S3InvoiceArchive stores invoice documents in an S3 bucket.
// Works with AWS S3 and S3-compatible servers (MinIO, RustFS).
type S3InvoiceArchive struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	presignTTL    time.Duration
	logger        *zap.Logger
}

// S3InvoiceArchiveOption is a functional option for configuring S3InvoiceArchive
type S3InvoiceArchiveOption func(*S3InvoiceArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3InvoiceArchiveOption {
	return func(s *S3InvoiceArchive) {
		s.logger = logger
	}
}

// WithPresignTTL overrides the configured presign lifetime
func WithPresignTTL(d time.Duration) S3InvoiceArchiveOption {
	return func(s *S3InvoiceArchive) {
		s.presignTTL = d
	}
}

// NewS3InvoiceArchive creates an archive from configuration
func NewS3InvoiceArchive(cfg *infraconfig.StorageConfig, opts ...S3InvoiceArchiveOption) (*S3InvoiceArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	archive := &S3InvoiceArchive{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		presignTTL:    cfg.PresignTTL,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	if archive.presignTTL <= 0 {
		archive.presignTTL = defaultPresignTTL
	}
	return archive, nil
}

// normalizeEndpoint adds a scheme to a bare host. An empty endpoint means AWS.
func normalizeEndpoint(endpoint string, useSSL bool) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return endpoint, nil
}

// InvoiceKey returns the object key for an invoice document
func InvoiceKey(invoice string) string {
	return invoiceKeyPrefix + invoice + ".pdf"
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3InvoiceArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating invoice bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Store uploads a rendered invoice and returns its object key
func (s *S3InvoiceArchive) Store(ctx context.Context, invoice string, pdf []byte) (string, error) {
	if invoice == "" {
		return "", errors.New("invoice is required")
	}
	key := InvoiceKey(invoice)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(pdf),
		ContentLength:      aws.Int64(int64(len(pdf))),
		ContentType:        aws.String("application/pdf"),
		ContentDisposition: aws.String(`inline; filename="` + invoice + `.pdf"`),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload invoice: %w", err)
	}
	s.logger.Debug("Invoice archived", zap.String("key", key), zap.Int("bytes", len(pdf)))
	return key, nil
}

// DownloadURL returns a presigned GET URL for a stored object
func (s *S3InvoiceArchive) DownloadURL(ctx context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate download URL: %w", err)
	}
	return req.URL, time.Now().Add(s.presignTTL), nil
}

// Bucket returns the bucket name
func (s *S3InvoiceArchive) Bucket() string {
	return s.bucket
}
