package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

var ErrValidation = errors.New("validation error")

const signedURLTTL = 5 * time.Minute

// AvatarStorage presigns short-lived GET URLs for avatar objects. Uploads
// happen through the upstream app; this service only reads.
type AvatarStorage struct {
	client *minio.Client
	bucket string
}

func NewAvatarStorage(client *minio.Client, bucket string) *AvatarStorage {
	return &AvatarStorage{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

func (s *AvatarStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = signedURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}
