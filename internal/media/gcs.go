package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
)

const (
	publicHost   = "storage.googleapis.com"
	objectPrefix = "media/"
)

// GCSUploader stores media in a Cloud Storage bucket with public URLs.
type GCSUploader struct {
	client *gcs.Client
	bucket string
}

func NewGCSUploader(client *gcs.Client, bucket string) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("media: storage client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("media: bucket is required")
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, f File) (*Result, error) {
	name := objectPrefix + ulid.Make().String() + extension(f.Name)

	w := u.client.Bucket(u.bucket).Object(name).NewWriter(ctx)
	w.ContentType = f.ContentType
	w.CacheControl = "public, max-age=31536000"

	written, err := io.Copy(w, f.Content)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close object: %w", err)
	}

	return &Result{
		URL:         publicURL(u.bucket, name),
		Name:        name,
		ContentType: f.ContentType,
		Size:        written,
	}, nil
}

func (u *GCSUploader) Remove(ctx context.Context, rawURL string) error {
	name, err := objectName(u.bucket, rawURL)
	if err != nil {
		return err
	}
	if err := u.client.Bucket(u.bucket).Object(name).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func publicURL(bucket, name string) string {
	return (&url.URL{Scheme: "https", Host: publicHost, Path: "/" + bucket + "/" + name}).String()
}

// objectName maps a public URL back to an object in bucket.
func objectName(bucket, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host != publicHost {
		return "", ErrInvalidURL
	}
	name, ok := strings.CutPrefix(parsed.Path, "/"+bucket+"/")
	if !ok || !strings.HasPrefix(name, objectPrefix) || strings.Contains(name, "..") {
		return "", ErrInvalidURL
	}
	return name, nil
}
