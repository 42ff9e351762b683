// Package snapshot copies the audit log, verbatim, to durable object
// storage and hands out presigned read URLs for evidence objects. It is
// strictly read-only with respect to the chain: a failed export leaves
// the in-process log intact and authoritative.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnconfigured is returned when no destination bucket is set. It is a
// distinct condition from an upload failure: the feature is simply off.
var ErrUnconfigured = errors.New("snapshot: no audit bucket configured")

const contentType = "application/jsonl"

// putObjectAPI is the slice of the S3 client Export needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// presignAPI is the slice of the S3 presign client the evidence path needs.
type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Exporter uploads point-in-time copies of the audit log.
type Exporter struct {
	client    putObjectAPI
	presigner presignAPI
	bucket    string
	logger    *slog.Logger

	now func() time.Time
}

// New builds an Exporter from a resolved AWS config. An empty bucket is
// allowed; every operation then reports ErrUnconfigured.
func New(cfg aws.Config, bucket string, logger *slog.Logger) *Exporter {
	client := s3.NewFromConfig(cfg)
	return &Exporter{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		logger:    logger,
		now:       time.Now,
	}
}

// Export uploads the current contents of the log file under a
// timestamped key and returns the s3:// location. The file is read fully
// into memory first so the upload operates on a stable copy and never
// holds up a concurrent append.
func (e *Exporter) Export(ctx context.Context, logPath string) (string, error) {
	if e.bucket == "" {
		return "", ErrUnconfigured
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		return "", fmt.Errorf("snapshot: source unreadable: %w", err)
	}

	key := fmt.Sprintf("audit_logs/audit_%d.jsonl", e.now().Unix())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: upload failed: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", e.bucket, key)
	e.logger.Info("audit log snapshot uploaded", "location", location, "bytes", len(data))
	return location, nil
}

// KeyURL pairs an object key with its presigned GET URL. URL is empty
// when presigning failed for that key.
type KeyURL struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignURL returns a presigned GET URL for key, or ErrUnconfigured
// when no bucket is set.
func (e *Exporter) PresignURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if e.bucket == "" || key == "" {
		return "", ErrUnconfigured
	}

	req, err := e.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: presign %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignMany presigns each key best-effort. Failures come back with an
// empty URL rather than aborting the batch.
func (e *Exporter) PresignMany(ctx context.Context, keys []string, expires time.Duration) []KeyURL {
	out := make([]KeyURL, 0, len(keys))
	for _, k := range keys {
		url, err := e.PresignURL(ctx, k, expires)
		if err != nil && !errors.Is(err, ErrUnconfigured) {
			e.logger.Warn("presign failed", "key", k, "error", err)
		}
		out = append(out, KeyURL{Key: k, URL: url})
	}
	return out
}
