// Package blob stores binary objects (employee photos) in OSS or on local disk.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"perfeval/internal/platform/config"
)

var ErrNotFound = errors.New("blob not found")

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Open builds the driver selected by BLOB_DRIVER.
func Open(cfg config.Config) (Store, error) {
	switch cfg.BlobDriver {
	case config.BlobOSS:
		return NewOSS(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey, cfg.OSSBucket)
	case config.BlobLocal, "":
		return NewLocal(cfg.BlobLocalDir)
	}
	return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
}

// PhotoKey is the object key of an employee photo.
func PhotoKey(companyID, employeeID string) string {
	return "companies/" + safePart(companyID) + "/employees/" + safePart(employeeID) + "/photo.jpg"
}

func safePart(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" {
		return "_"
	}
	return s
}
