package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/mixpost-api/configs"
)

// objectStore is the subset of the S3 client used by R2Storage.
type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// R2Storage is the "s3" disk, backed by Cloudflare R2 through the S3 API.
type R2Storage struct {
	client    objectStore
	bucket    string
	publicURL string
}

func NewR2Storage(ctx context.Context, c cfg.R2) (*R2Storage, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("loading r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID))
	})
	return newR2Storage(client, c.BucketName, c.PublicURL), nil
}

func newR2Storage(client objectStore, bucket, publicURL string) *R2Storage {
	return &R2Storage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (r *R2Storage) Disk() string {
	return "s3"
}

// Put reads non-seekable bodies into memory; the S3 API needs the
// content length up front.
func (r *R2Storage) Put(ctx context.Context, path string, body io.Reader, contentType string) (int64, error) {
	seeker, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		seeker = bytes.NewReader(data)
	}

	size, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("sizing %s: %w", path, err)
	}
	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding %s: %w", path, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(path),
		Body:          seeker,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	}
	if _, err := r.client.PutObject(ctx, input); err != nil {
		return 0, fmt.Errorf("uploading %s: %w", path, err)
	}
	return size, nil
}

func (r *R2Storage) Delete(ctx context.Context, path string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path),
	}
	if _, err := r.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}

func (r *R2Storage) URL(path string) string {
	return r.publicURL + "/" + strings.TrimLeft(path, "/")
}
