// Package s3archive writes solved epicenter reports to S3 as JSON documents,
// partitioned by processing date.
package s3archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/couchcryptid/epicenter-locator/internal/config"
	"github.com/couchcryptid/epicenter-locator/internal/domain"
)

const contentTypeJSON = "application/json"

// S3Client is the subset of the S3 API the archive needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver stores reports under <prefix>/YYYY/MM/DD/<id>.json.
// It implements pipeline.Archiver.
type Archiver struct {
	client S3Client
	bucket string
	prefix string
}

// New creates an Archiver over an existing S3 client.
func New(client S3Client, bucket, prefix string) (*Archiver, error) {
	if bucket == "" {
		return nil, errors.New("empty bucket name")
	}
	return &Archiver{client: client, bucket: bucket, prefix: prefix}, nil
}

// NewFromConfig builds the S3 client from the default AWS credential chain.
// When cfg.ArchiveEndpoint is set, requests go to that endpoint with
// path-style addressing, which local S3-compatible stores expect.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.ArchiveEndpoint != "" {
		logger.Debug("using custom S3 endpoint", "endpoint", cfg.ArchiveEndpoint)
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ArchiveEndpoint)
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, opts...), cfg.ArchiveBucket, cfg.ArchivePrefix)
}

// Archive uploads one report.
func (a *Archiver) Archive(ctx context.Context, report domain.EpicenterReport) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	key := a.objectKey(report)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}

func (a *Archiver) objectKey(report domain.EpicenterReport) string {
	return path.Join(a.prefix, report.ProcessedAt.UTC().Format("2006/01/02"), report.ID+".json")
}
