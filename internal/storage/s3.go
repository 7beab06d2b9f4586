package storage

import (
	"context"
	"fmt"

	appconfig "resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the part of the S3 client used to download objects
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 downloads resumes from an S3-compatible store
type S3 struct {
	client  ObjectGetter
	maxSize int64
	logger  *errors.Logger
}

// NewS3 builds an S3 client from cfg. Static credentials are used when both keys are set;
// otherwise the default AWS credential chain applies. A custom endpoint supports
// S3-compatible stores such as MinIO or R2.
func NewS3(ctx context.Context, cfg appconfig.S3Config, maxSize int64, logger *errors.Logger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("S3 resume storage enabled",
		"region", cfg.Region,
		"endpoint", cfg.Endpoint,
		"path_style", cfg.UsePathStyle)

	return NewS3WithClient(client, maxSize, logger), nil
}

// NewS3WithClient wraps an existing client
func NewS3WithClient(client ObjectGetter, maxSize int64, logger *errors.Logger) *S3 {
	return &S3{client: client, maxSize: maxSize, logger: logger}
}

// Fetch downloads the object ref (s3://bucket/key)
func (s *S3) Fetch(ctx context.Context, ref string) (Document, error) {
	bucket, key, err := ParseS3URI(ref)
	if err != nil {
		return Document{}, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("Failed to get object %s", ref), err)
	}
	defer func() {
		if err := out.Body.Close(); err != nil && s.logger != nil {
			s.logger.Warn("Failed to close object body", "ref", ref, "error", err)
		}
	}()

	if s.maxSize > 0 && out.ContentLength != nil && *out.ContentLength > s.maxSize {
		return Document{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Object %s is %d bytes; the limit is %d", ref, *out.ContentLength, s.maxSize), nil)
	}

	data, err := readLimited(out.Body, s.maxSize)
	if err != nil {
		return Document{}, errors.NewIOError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("Failed to read object body %s", ref), err)
	}

	if s.logger != nil {
		s.logger.Debug("Fetched resume from S3", "bucket", bucket, "key", key, "bytes", len(data))
	}
	return Document{Name: objectName(key), Data: data}, nil
}
