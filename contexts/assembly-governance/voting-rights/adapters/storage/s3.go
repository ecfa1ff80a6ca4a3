package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3 deletes delegation artifacts from an S3 bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

type S3Config struct {
	Bucket  string
	Prefix  string
	Region  string
	Timeout time.Duration
}

func NewS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 artifacts: bucket not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 artifacts: load default AWS config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &S3{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  bucket,
		prefix:  strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Delete treats a missing key as already deleted.
func (s *S3) Delete(ctx context.Context, path string) error {
	key := s.fullKey(path)
	if key == "" {
		return ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil
		}
		s.logger.Error("artifact delete failed",
			"event", "voting_rights_artifact_delete_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "adapter",
			"backend", "s3",
			"path", key,
			"error", err.Error(),
		)
		return fmt.Errorf("s3 artifacts: delete %q: %w", key, err)
	}
	return nil
}

func (s *S3) fullKey(path string) string {
	key := normalizePath(path)
	if key == "" {
		return ""
	}
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	return errors.As(err, &noSuchKey)
}
