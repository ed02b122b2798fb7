package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// ErrObjectTooLarge is returned by ReadObject when the object exceeds the limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// BucketSigner signs V4 URLs for objects in one bucket.
type BucketSigner struct {
	bucket *storage.BucketHandle
	name   string
}

// NewBucketSigner wraps a bucket handle. The credentials of the client are
// used to sign; on Cloud Functions this goes through the IAM signBlob API.
func NewBucketSigner(client *storage.Client, bucket string) *BucketSigner {
	return &BucketSigner{bucket: client.Bucket(bucket), name: bucket}
}

// Bucket returns the bucket name.
func (s *BucketSigner) Bucket() string { return s.name }

// SignUpload returns a PUT URL restricted to the given content type.
func (s *BucketSigner) SignUpload(_ context.Context, object, contentType string, ttl time.Duration) (string, error) {
	url, err := s.bucket.SignedURL(object, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign upload URL for %s: %w", object, err)
	}
	return url, nil
}

// SignDownload returns a GET URL for object.
func (s *BucketSigner) SignDownload(_ context.Context, object string, ttl time.Duration) (string, error) {
	url, err := s.bucket.SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for %s: %w", object, err)
	}
	return url, nil
}

// ReadObject downloads gs://bucket/object into memory, refusing objects
// larger than limit bytes.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string, limit int64) ([]byte, error) {
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound || errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, storage.ErrObjectNotExist)
		}
		return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()
	if r.Attrs.Size > limit {
		return nil, fmt.Errorf("gs://%s/%s is %d bytes: %w", bucket, object, r.Attrs.Size, ErrObjectTooLarge)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, ErrObjectTooLarge)
	}
	return data, nil
}
