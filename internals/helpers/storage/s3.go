package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"automark_backend/internals/configs"
	"automark_backend/internals/helpers/httpx"
)

// S3Backend: Amazon S3. Kredensial dari default chain AWS (env, profile, IAM role).
type S3Backend struct {
	Client     *s3.Client
	BucketName string
	Region     string
	Prefix     string
	PublicBase string
}

func NewS3Backend(ctx context.Context, cfg configs.S3Config) (*S3Backend, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing config: S3_BUCKET")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// retry diatur oleh httpx.Policy di Store
		o.RetryMaxAttempts = 1
	})
	return &S3Backend{
		Client:     client,
		BucketName: cfg.Bucket,
		Region:     awsCfg.Region,
		Prefix:     strings.Trim(cfg.Prefix, "/"),
		PublicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}, nil
}

func (s *S3Backend) Name() string { return "s3" }

func (s *S3Backend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := joinPrefix(s.Prefix, key)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.BucketName),
		Key:                aws.String(objectKey),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String("inline"),
		CacheControl:       aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", classifyS3Error(err)
	}
	return s.PublicURL(objectKey), nil
}

func (s *S3Backend) PublicURL(key string) string {
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	if s.Region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.BucketName, s.Region, key)
}

func classifyS3Error(err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		return fmt.Errorf("s3: %w", &httpx.StatusError{StatusCode: re.HTTPStatusCode(), Body: err.Error()})
	}
	return err
}
