package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS deletes delegation artifacts from a Google Cloud Storage bucket.
type GCS struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

type GCSConfig struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
	Timeout         time.Duration
}

func NewGCS(ctx context.Context, cfg GCSConfig, logger *slog.Logger) (*GCS, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("gcs artifacts: bucket not set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := []option.ClientOption{storage.WithDisabledClientMetrics()}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs artifacts: create client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GCS{
		client:  client,
		bucket:  client.Bucket(bucket),
		prefix:  strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Delete treats a missing object as already deleted.
func (g *GCS) Delete(ctx context.Context, path string) error {
	key := g.fullKey(path)
	if key == "" {
		return ErrInvalidPath
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		g.logger.Error("artifact delete failed",
			"event", "voting_rights_artifact_delete_failed",
			"module", "assembly-governance/voting-rights",
			"layer", "adapter",
			"backend", "gcs",
			"path", key,
			"error", err.Error(),
		)
		return fmt.Errorf("gcs artifacts: delete %q: %w", key, err)
	}
	return nil
}

func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func (g *GCS) fullKey(path string) string {
	key := normalizePath(path)
	if key == "" {
		return ""
	}
	if g.prefix == "" {
		return key
	}
	return g.prefix + "/" + key
}
