package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSS struct {
	bucket *oss.Bucket
}

func NewOSS(endpoint, accessKey, secretKey, bucketName string) (*OSS, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucketName == "" {
		return nil, errors.New("oss endpoint, credentials and bucket are required")
	}
	client, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}
	return &OSS{bucket: bucket}, nil
}

func (s *OSS) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	return s.bucket.PutObject(key, r,
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("private, max-age=300"),
	)
}

func (s *OSS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	return body, err
}

func (s *OSS) Delete(ctx context.Context, key string) error {
	err := s.bucket.DeleteObject(key, oss.WithContext(ctx))
	if isNotFound(err) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == 404
	}
	return false
}
