package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/config"
	"github.com/GTDGit/gtd_donate/internal/export"
)

// ObjectPutter is the part of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Service archives CSV exports to S3 (or any S3 compatible store).
type S3Service struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

// NewS3Service creates an S3 archive from cfg. Static credentials are used
// when configured, otherwise the default AWS credential chain.
func NewS3Service(ctx context.Context, cfg *config.ExportConfig) (*S3Service, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, errors.New("export bucket not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3ServiceWithClient(client, cfg.Bucket), nil
}

// NewS3ServiceWithClient creates an S3 archive around an existing client.
func NewS3ServiceWithClient(client ObjectPutter, bucket string) *S3Service {
	return &S3Service{client: client, bucket: bucket, now: time.Now}
}

// ExportKey returns the object key of an export archived at t.
func ExportKey(t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("exports/%04d/%02d/%02d/%s.csv", t.Year(), int(t.Month()), t.Day(), id)
}

// ArchiveExport uploads a CSV export and returns its key.
func (s *S3Service) ArchiveExport(ctx context.Context, data []byte) (string, error) {
	key := ExportKey(s.now(), uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(export.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put export %s: %w", key, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("Export archived")
	return key, nil
}
