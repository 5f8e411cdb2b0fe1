// Package storage uploads user-supplied images to object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"tabletop/backend/internal/apperr"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Allowed image content types and the extension they are stored with.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MaxImageSize caps uploads at 5 MiB.
const MaxImageSize = 5 << 20

// sniffLen is how much of the body is read to detect its type.
const sniffLen = 512

// Uploader stores an object and returns its public URL. The content type is
// detected from the bytes, never taken from the client.
type Uploader interface {
	Upload(ctx context.Context, prefix string, r io.Reader, size int64) (string, error)
}

// Sniff detects the content type from the head of r. The returned reader
// yields the whole body, including the bytes already consumed.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// ObjectName builds a unique key like "avatars/<uuid>.png" and validates the
// content type.
func ObjectName(prefix, contentType string) (string, error) {
	ext, ok := imageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperr.Invalid("file", "unsupported content type %q", contentType)
	}
	return path.Join(prefix, uuid.NewString()+ext), nil
}

// MinIO uploads to a single bucket on an S3-compatible server.
type MinIO struct {
	client *minio.Client
	bucket string
	secure bool
}

// NewMinIO connects and creates the bucket if it does not exist.
func NewMinIO(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIO, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return &MinIO{client: client, bucket: bucket, secure: useSSL}, nil
}

func (m *MinIO) Upload(ctx context.Context, prefix string, r io.Reader, size int64) (string, error) {
	if size > MaxImageSize {
		return "", apperr.Invalid("file", "file exceeds %d bytes", MaxImageSize)
	}
	contentType, body, err := Sniff(r)
	if err != nil {
		return "", err
	}
	objectName, err := ObjectName(prefix, contentType)
	if err != nil {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, objectName, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperr.Remote("storage.Upload", err)
	}

	scheme := "http"
	if m.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.client.EndpointURL().Host, m.bucket, objectName), nil
}

// Disabled rejects every upload; used when no object storage is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, io.Reader, int64) (string, error) {
	return "", fmt.Errorf("uploads: %w", apperr.ErrUnavailable)
}
