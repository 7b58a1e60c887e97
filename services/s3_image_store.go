package services

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/coproject/backend/config"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore keeps images in a bucket under the images/ prefix
type S3ImageStore struct {
	client  objectAPI
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

func NewS3ImageStore(client objectAPI, bucket, baseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  log.With().Str("service", "S3ImageStore").Logger(),
	}
}

// NewS3ImageStoreFromConfig builds the client from the default AWS credential chain
func NewS3ImageStoreFromConfig(ctx context.Context, c map[string]string) (*S3ImageStore, error) {
	bucket := config.GetString(c, "S3_BUCKET", "")
	if bucket == "" {
		return nil, errs.NewEnvironmentVariableError("S3_BUCKET")
	}

	awsCfg, err := LoadAWSConfig(ctx, c)
	if err != nil {
		return nil, err
	}

	baseURL := config.GetString(c, "IMAGE_BASE_URL", fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, awsCfg.Region))
	return NewS3ImageStore(s3.NewFromConfig(awsCfg), bucket, baseURL), nil
}

func (s *S3ImageStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	if err := ValidateImage(name, len(content)); err != nil {
		return "", err
	}

	key := "images/" + imageObjectName(name)
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errs.NewStorageWriteError("image", err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(content)).Msg("image uploaded")
	return s.baseURL + "/" + key, nil
}

// Delete removes an object uploaded by Save. Paths outside the bucket, the placeholder among them, are ignored.
func (s *S3ImageStore) Delete(ctx context.Context, path string) error {
	key, ok := strings.CutPrefix(path, s.baseURL+"/")
	if !ok || path == models.DefaultImage || !strings.HasPrefix(key, "images/") {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errs.NewStorageDeleteError(path, err)
	}
	return nil
}
