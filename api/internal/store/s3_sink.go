package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"pantry-scan/api/internal/normalize"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes each unusable model answer to <prefix>/<date>/<request_id>.txt.
type S3Sink struct {
	client objectPutter
	bucket string
	prefix string
}

// LoadAWSConfig loads the default credential chain; region overrides AWS_REGION when set.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// NewS3Sink uses path-style addressing so MinIO/localstack endpoints work.
func NewS3Sink(cfg aws.Config, bucket, prefix, endpoint string) *S3Sink {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) Key(rec normalize.Record) string {
	id := rec.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return path.Join(s.prefix, at.Format("2006-01-02"), id+".txt")
}

// Record implements normalize.Sink.
func (s *S3Sink) Record(ctx context.Context, rec normalize.Record) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "kind: %s\nprovider: %s\nmodel: %s\nreason: %s\nat: %s\n\n",
		rec.Kind, rec.Provider, rec.Model, rec.Reason, rec.At.UTC().Format(time.RFC3339))
	buf.WriteString(rec.RawText)

	key := s.Key(rec)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/plain; charset=utf-8"),
		Metadata: map[string]string{
			"kind":     rec.Kind.String(),
			"provider": rec.Provider,
		},
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			return fmt.Errorf("put s3://%s/%s (%s): %w", s.bucket, key, ae.ErrorCode(), err)
		}
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
