package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"automark_backend/internals/configs"
	"automark_backend/internals/helpers/httpx"
)

// OSSBackend: Alibaba Cloud OSS.
type OSSBackend struct {
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string
	PublicBase string
}

func NewOSSBackend(cfg configs.OSSConfig) (*OSSBackend, error) {
	if !cfg.Enabled() {
		return nil, errors.New("missing config: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if cfg.SecurityToken != "" {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, oss.SecurityToken(cfg.SecurityToken))
	} else {
		client, err = oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Verifikasi ringan lokasi bucket
	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) && se.StatusCode == 403 {
			log.Printf("[OSS] warn: skip location check (AccessDenied, bucket=%s)", cfg.Bucket)
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		log.Printf("[OSS] bucket %s location: %s", cfg.Bucket, loc)
	}

	return &OSSBackend{
		Bucket:     bkt,
		Endpoint:   cfg.Endpoint,
		BucketName: cfg.Bucket,
		Prefix:     strings.Trim(cfg.Prefix, "/"),
		PublicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}, nil
}

func (s *OSSBackend) Name() string { return "oss" }

func (s *OSSBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := joinPrefix(s.Prefix, key)
	err := s.Bucket.PutObject(objectKey, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
	if err != nil {
		return "", classifyOSSError(err)
	}
	return s.PublicURL(objectKey), nil
}

func (s *OSSBackend) PublicURL(key string) string {
	if s.PublicBase != "" {
		return s.PublicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

// classifyOSSError: ServiceError → httpx.StatusError supaya 429/5xx di-retry.
func classifyOSSError(err error) error {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return fmt.Errorf("oss %s: %w", se.Code, &httpx.StatusError{StatusCode: se.StatusCode, Body: se.Message})
	}
	return err
}

func joinPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
