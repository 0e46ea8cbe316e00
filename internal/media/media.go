// Package media stores uploaded images in object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrInvalidURL    = errors.New("invalid media url")
	ErrEmptyFile     = errors.New("file is empty")
	ErrNoFiles       = errors.New("no files provided")
	ErrMediaNotFound = errors.New("media not found")
)

// File is an upload source.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Result describes a stored object.
type Result struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type Uploader interface {
	Upload(ctx context.Context, f File) (*Result, error)
	Remove(ctx context.Context, url string) error
}

type Service struct {
	uploader Uploader
	logger   *zap.Logger
}

func NewService(uploader Uploader, logger *zap.Logger) *Service {
	return &Service{uploader: uploader, logger: logger.Named("media")}
}

func (s *Service) UploadSingle(ctx context.Context, f File) (*Result, error) {
	if f.Content == nil || f.Size == 0 {
		return nil, ErrEmptyFile
	}
	res, err := s.uploader.Upload(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	s.logger.Info("media uploaded", zap.String("url", res.URL), zap.Int64("size", res.Size))
	return res, nil
}

// UploadMultiple uploads every file or none: objects stored before a failure
// are removed again.
func (s *Service) UploadMultiple(ctx context.Context, files []File) ([]*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]*Result, 0, len(files))
	for _, f := range files {
		res, err := s.UploadSingle(ctx, f)
		if err != nil {
			s.rollback(ctx, results)
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) Remove(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrInvalidURL
	}
	if err := s.uploader.Remove(ctx, url); err != nil {
		return err
	}
	s.logger.Info("media removed", zap.String("url", url))
	return nil
}

func (s *Service) rollback(ctx context.Context, results []*Result) {
	for _, res := range results {
		if err := s.uploader.Remove(ctx, res.URL); err != nil {
			s.logger.Warn("failed to remove partial upload", zap.String("url", res.URL), zap.Error(err))
		}
	}
}

// extension keeps a short, lowercase file extension.
func extension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, " /\\?#") {
		return ""
	}
	return ext
}
