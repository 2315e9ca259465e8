// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pdiddy/clause-engine/pkg/types"
)

const defaultS3Region = "us-east-1"

// objectStore is the slice of the S3 client the sink needs.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// maxDeleteKeys is the DeleteObjects batch limit.
const maxDeleteKeys = 1000

// S3Sink stores each artifact as one object. S3 PutObject is atomic per
// object.
type S3Sink struct {
	client objectStore
	bucket string
	prefix string
}

// NewS3Sink loads AWS configuration. Static credentials from cfg are used
// when both keys are set, otherwise the default credential chain applies.
func NewS3Sink(ctx context.Context, cfg types.SinkConfig) (*S3Sink, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 sink needs a bucket")
	}
	region := cfg.S3Region
	if region == "" {
		region = defaultS3Region
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return newS3Sink(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
}

func newS3Sink(client objectStore, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Sink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads data under prefix/name.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s: %w", key, s.bucket, err)
	}
	return nil
}

// Prune deletes objects under prefix/doc/ whose name is not in keep.
func (s *S3Sink) Prune(ctx context.Context, doc string, keep []string) ([]string, error) {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[s.key(k)] = true
	}

	var stale []string
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.key(doc) + "/"),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", s.bucket, s.key(doc), err)
		}
		for _, obj := range page.Contents {
			if key := aws.ToString(obj.Key); !kept[key] {
				stale = append(stale, key)
			}
		}
	}

	var removed []string
	for start := 0; start < len(stale); start += maxDeleteKeys {
		batch := stale[start:min(start+maxDeleteKeys, len(stale))]
		ids := make([]s3types.ObjectIdentifier, len(batch))
		for i, key := range batch {
			ids[i] = s3types.ObjectIdentifier{Key: aws.String(key)}
		}
		if _, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		}); err != nil {
			return removed, fmt.Errorf("deleting stale objects in s3://%s: %w", s.bucket, err)
		}
		removed = append(removed, batch...)
	}
	return removed, nil
}

// Close is a no-op.
func (s *S3Sink) Close() error { return nil }
