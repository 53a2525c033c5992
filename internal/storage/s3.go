package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	cfg "portfolio-photo-backend/internal/config"

	"github.com/avast/retry-go"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const uploadAttempts = 3

// ObjectStorage stores photo files in an S3-compatible bucket and
// hands back the public URL they will be served from.
type ObjectStorage struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// New creates the object storage client. A custom endpoint switches to
// path-style addressing for S3-compatible providers.
func New(ctx context.Context, awsCfg cfg.AWSConfig) (*ObjectStorage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(awsCfg.Region))
	if awsCfg.AccessKey != "" && awsCfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKey, awsCfg.SecretKey, ""),
		))
	}

	loaded, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if awsCfg.Endpoint != "" {
		client = s3.NewFromConfig(loaded, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(awsCfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(loaded)
	}

	publicBase := awsCfg.PublicBase
	if publicBase == "" {
		if awsCfg.Endpoint != "" {
			publicBase = strings.TrimSuffix(awsCfg.Endpoint, "/") + "/" + awsCfg.S3Bucket
		} else {
			publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", awsCfg.S3Bucket, awsCfg.Region)
		}
	}

	return &ObjectStorage{
		client:     client,
		bucket:     awsCfg.S3Bucket,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}, nil
}

// Upload stores data under key and returns its public URL. Transient
// failures are retried before giving up.
func (s *ObjectStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	err := retry.Do(
		func() error {
			_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(s.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				ContentType: aws.String(contentType),
			})
			return err
		},
		retry.Attempts(uploadAttempts),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n+1).Str("key", key).Msg("Retrying S3 upload")
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes the object behind a public URL. URLs that do not
// point into this bucket are ignored.
func (s *ObjectStorage) Delete(ctx context.Context, publicURL string) error {
	key, ok := s.ObjectKey(publicURL)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the public URL for an object key.
func (s *ObjectStorage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimPrefix(key, "/")
}

// ObjectKey recovers the object key from a public URL. The public
// base prefix covers virtual-hosted URLs; the bucket path marker
// covers path-style ones.
func (s *ObjectStorage) ObjectKey(publicURL string) (string, bool) {
	var key string
	if strings.HasPrefix(publicURL, s.publicBase+"/") {
		key = publicURL[len(s.publicBase)+1:]
	} else {
		marker := "/" + s.bucket + "/"
		idx := strings.Index(publicURL, marker)
		if idx < 0 {
			return "", false
		}
		key = publicURL[idx+len(marker):]
	}
	if q := strings.IndexByte(key, '?'); q >= 0 {
		key = key[:q]
	}
	if key == "" {
		return "", false
	}
	return key, true
}
