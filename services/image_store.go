package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coproject/backend/config"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const MaxImageSize = 5 * 1024 * 1024

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ImageStore persists profile pictures and returns the path users reference them by
type ImageStore interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// NewImageStore picks the backend named by IMAGE_STORE ("local" or "s3")
func NewImageStore(ctx context.Context, c map[string]string) (ImageStore, error) {
	switch kind := config.GetString(c, "IMAGE_STORE", "local"); kind {
	case "local":
		return NewLocalImageStore(config.GetString(c, "IMAGE_DIR", "images"))
	case "s3":
		return NewS3ImageStoreFromConfig(ctx, c)
	default:
		return nil, errs.NewConfigError("IMAGE_STORE", fmt.Errorf("unknown image store %q", kind))
	}
}

// ValidateImage checks the upload against the accepted extensions and size
func ValidateImage(name string, size int) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedImageExtensions[ext] {
		return errs.NewInvalidFieldError("image", fmt.Sprintf("%q is not a JPG or PNG file", name))
	}
	if size == 0 {
		return errs.NewInvalidFieldError("image", "file is empty")
	}
	if size > MaxImageSize {
		return errs.NewMaxBodySizeExceededError(MaxImageSize)
	}
	return nil
}

func imageObjectName(name string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(name))
}

// LocalImageStore keeps images on disk and serves them under /images/
type LocalImageStore struct {
	dir    string
	logger zerolog.Logger
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewConfigError("IMAGE_DIR", err)
	}
	return &LocalImageStore{
		dir:    dir,
		logger: log.With().Str("service", "LocalImageStore").Logger(),
	}, nil
}

// Dir is the directory served under /images/
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	if err := ValidateImage(name, len(content)); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	object := imageObjectName(name)
	if err := os.WriteFile(filepath.Join(s.dir, object), content, 0o644); err != nil {
		return "", errs.NewStorageWriteError("image", err)
	}

	s.logger.Debug().Str("object", object).Int("size", len(content)).Msg("image stored")
	return "/images/" + object, nil
}

// Delete removes an image stored by Save. The placeholder and foreign paths are left alone.
func (s *LocalImageStore) Delete(ctx context.Context, path string) error {
	object, ok := strings.CutPrefix(path, "/images/")
	if !ok || path == models.DefaultImage || object == "" || strings.Contains(object, "/") {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, object))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.NewStorageDeleteError(path, err)
	}
	return nil
}
