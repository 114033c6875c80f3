package dedup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/teamboard/internal/server/config"
)

// S3API is the part of *s3.Client used by S3Guard.
type S3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Client builds an S3 client for the configured endpoint. Path-style
// addressing keeps it working against MinIO.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// S3Guard stores one object per key in a bucket shared by every instance.
// Claim relies on a conditional write (If-None-Match: *), so across instances
// exactly one PutObject for a key succeeds.
type S3Guard struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Guard returns a guard writing under prefix in bucket. Separate
// scanners use separate prefixes.
func NewS3Guard(client S3API, bucket, prefix string) *S3Guard {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Guard{client: client, bucket: bucket, prefix: prefix}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (g *S3Guard) EnsureBucket(ctx context.Context) error {
	if _, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(g.bucket)}); err == nil {
		return nil
	}
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(g.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", g.bucket, err)
	}
	return nil
}

func (g *S3Guard) objectKey(key Key) string {
	return g.prefix + key.String()
}

func (g *S3Guard) Claim(ctx context.Context, key Key, at time.Time) (bool, error) {
	stamp := at.UTC().Format(time.RFC3339)
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(g.objectKey(key)),
		Body:        strings.NewReader(stamp),
		IfNoneMatch: aws.String("*"),
		Metadata:    map[string]string{"fired-at": stamp},
	})
	if err != nil {
		if isConditionFailure(err) {
			return false, nil
		}
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return true, nil
}

func (g *S3Guard) Release(ctx context.Context, key Key) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(g.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Evict uses the object's LastModified as the fired-at time.
func (g *S3Guard) Evict(ctx context.Context, before time.Time) (int, error) {
	p := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(g.prefix),
	})

	n := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return n, fmt.Errorf("list %s: %w", g.prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(before) {
				continue
			}
			if _, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(g.bucket),
				Key:    obj.Key,
			}); err != nil {
				return n, fmt.Errorf("evict %s: %w", aws.ToString(obj.Key), err)
			}
			n++
		}
	}
	return n, nil
}

// isConditionFailure reports whether a conditional write lost: the object
// exists (412) or a concurrent conditional write is in flight (409).
func isConditionFailure(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusPreconditionFailed, http.StatusConflict:
			return true
		}
	}
	return false
}
