package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"coa-backend/internal/shared/storage/object"
)

// ErrExists is returned when an upload key is already taken.
var ErrExists = errors.New("gcs object already exists")

// Store implements ObjectStore on a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// New creates a GCS-backed object store using application default credentials.
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Save uploads under the user's namespace. Upload keys are random, so the
// write is conditional on the object not existing yet.
func (s *Store) Save(ctx context.Context, userID string, fileName string, r io.Reader) (string, int64, string, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}
	up, err := object.PrepareUpload(userID, fileName, r)
	if err != nil {
		return "", 0, "", err
	}
	obj := s.bucket.Object(object.JoinPrefix(s.prefix, up.Key)).If(storage.Conditions{DoesNotExist: true})
	size, err := s.put(ctx, obj, up.MimeType, up.Body)
	if err != nil {
		return "", 0, "", err
	}
	return up.Key, size, up.MimeType, nil
}

// SaveWithKey uploads data to a specific storage key, replacing any prior object.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.put(ctx, s.bucket.Object(object.JoinPrefix(s.prefix, storageKey)), contentType, r)
}

// Open streams a stored object.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := object.JoinPrefix(s.prefix, storageKey)
	rc, err := s.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, object.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read bucket=%s object=%s: %w", s.name, name, err)
	}
	return rc, nil
}

// Delete removes an object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	name := object.JoinPrefix(s.prefix, storageKey)
	err := s.bucket.Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete bucket=%s object=%s: %w", s.name, name, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, obj *storage.ObjectHandle, contentType string, r io.Reader) (int64, error) {
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	written, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return 0, s.writeErr(obj.ObjectName(), err)
	}
	if err := w.Close(); err != nil {
		return 0, s.writeErr(obj.ObjectName(), err)
	}
	return written, nil
}

func (s *Store) writeErr(name string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	return fmt.Errorf("gcs write bucket=%s object=%s: %w", s.name, name, err)
}

var _ object.ObjectStore = (*Store)(nil)
