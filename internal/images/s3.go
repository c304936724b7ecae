package images

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config selects the bucket and, optionally, static credentials.
// Without keys the default AWS credential chain is used.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// S3 stores images in a bucket, addressed as s3://bucket/key.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 builds an S3 backend from cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

// ParseS3URI splits s3://bucket/key. A bare key uses fallbackBucket.
func ParseS3URI(uri, fallbackBucket string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		key = strings.TrimPrefix(uri, "/")
		if key == "" || fallbackBucket == "" {
			return "", "", fmt.Errorf("invalid s3 uri %q", uri)
		}
		return fallbackBucket, key, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 uri %q: %w", uri, err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q", uri)
	}
	return u.Host, key, nil
}

// object parses uri and refuses keys in buckets other than the configured one.
func (s *S3) object(uri string) (bucket, key string, err error) {
	bucket, key, err = ParseS3URI(uri, s.bucket)
	if err != nil {
		return "", "", err
	}
	if bucket != s.bucket {
		return "", "", fmt.Errorf("%w: bucket %q", ErrOutsideRoot, bucket)
	}
	return bucket, key, nil
}

func (s *S3) Allowed(uri string) error {
	_, _, err := s.object(uri)
	return err
}

func (s *S3) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := s.object(uri)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

func (s *S3) Delete(ctx context.Context, uri string) error {
	bucket, key, err := s.object(uri)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
