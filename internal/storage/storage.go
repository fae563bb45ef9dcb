package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArtifactStore persists rendered certificate files and returns their
// public URLs.
type ArtifactStore interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// S3Store implements ArtifactStore on S3 (or any S3-compatible store
// via a custom endpoint).
type S3Store struct {
	uploader  *manager.Uploader
	bucket    string
	publicURL string
}

// S3Options configures the store. PublicURL is the base under which
// uploaded keys are publicly reachable; when empty the standard
// virtual-hosted S3 URL is used.
type S3Options struct {
	Region    string
	Bucket    string
	Endpoint  string
	PublicURL string
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(opts.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
	return &S3Store{
		uploader:  manager.NewUploader(client),
		bucket:    opts.Bucket,
		publicURL: publicURL,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
