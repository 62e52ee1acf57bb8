// Package s3 implements the media store on AWS S3 and S3-compatible
// object storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/wrenhall/warbler-api/internal/media"
)

// Config holds the object storage settings.
type Config struct {
	Bucket string
	Region string

	// Endpoint points at an S3-compatible store when set (MinIO, R2).
	Endpoint       string
	ForcePathStyle bool

	// Explicit credentials; when empty the SDK default chain applies.
	AccessKeyID     string
	SecretAccessKey string
}

// MediaStore implements media.Store on S3.
type MediaStore struct {
	client *s3.Client
	bucket string
}

// New creates a MediaStore with the given configuration.
func New(ctx context.Context, cfg Config) (*MediaStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket cannot be empty")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &MediaStore{client: client, bucket: cfg.Bucket}, nil
}

var _ media.Store = (*MediaStore)(nil)

// Head implements media.Store.
func (m *MediaStore) Head(ctx context.Context, key string) (*media.ResourceInfo, error) {
	out, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, media.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to head object %s: %w", key, err)
	}

	info := &media.ResourceInfo{Key: key}
	if out.ContentLength != nil {
		info.Size = *out.ContentLength
	}
	if out.ContentType != nil {
		info.MIMEType = *out.ContentType
	}
	return info, nil
}

// Get implements media.Store.
func (m *MediaStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, media.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// isNotFound detects the S3 not-found family: NoSuchKey on GetObject,
// bare 404 ("NotFound") on HeadObject.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
