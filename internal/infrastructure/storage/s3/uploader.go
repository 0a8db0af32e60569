// Package s3 implements the media uploader against an S3-compatible object
// store (AWS S3 or MinIO).
package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the object-storage settings.
type Config struct {
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string // set for MinIO / non-AWS endpoints
	PublicURL    string // base URL objects are served from
}

// Uploader pushes local files to the configured bucket.
type Uploader struct {
	client *s3.Client
	cfg    Config
	logger zerolog.Logger
}

// NewUploader builds the S3 client once at startup; credential or region
// misconfiguration fails here, not per request.
func NewUploader(ctx context.Context, cfg Config, logger zerolog.Logger) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{client: client, cfg: cfg, logger: logger}, nil
}

// Upload stores the file at localPath under a random key and returns its
// public URL. The local file is removed on both success and failure so temp
// uploads never accumulate.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.logger.Warn().Err(err).Str("path", localPath).Msg("failed to remove temp upload")
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := storageKey(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return strings.TrimSuffix(u.cfg.PublicURL, "/") + "/" + key, nil
}

// storageKey shards objects by date and keeps the original extension so the
// object store can infer content types.
func storageKey(localPath string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), filepath.Ext(localPath))
}
