package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("me.PNG", 10))
	assert.NoError(t, ValidateImage("me.jpeg", MaxImageSize))

	assert.True(t, errs.IsInvalidFieldError(ValidateImage("me.gif", 10)))
	assert.True(t, errs.IsInvalidFieldError(ValidateImage("me.png", 0)))
	assert.True(t, errs.IsMaxBodySizeExceededError(ValidateImage("me.png", MaxImageSize+1)))
}

func TestLocalImageStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := store.Save(ctx, "me.PNG", []byte("png bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/images/"))
	assert.True(t, strings.HasSuffix(path, ".png"))

	onDisk := filepath.Join(dir, strings.TrimPrefix(path, "/images/"))
	content, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(content))

	other, err := store.Save(ctx, "me.png", []byte("png bytes"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)

	require.NoError(t, store.Delete(ctx, path))
	_, err = os.Stat(onDisk)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// deleting twice, the placeholder, or a path outside the store is a no-op
	assert.NoError(t, store.Delete(ctx, path))
	assert.NoError(t, store.Delete(ctx, models.DefaultImage))
	assert.NoError(t, store.Delete(ctx, "/images/../secret"))
	assert.NoError(t, store.Delete(ctx, "https://cdn.example.com/x.png"))
}

func TestLocalImageStore_DoesNotDeletePlaceholder(t *testing.T) {
	dir := t.TempDir()
	placeholder := filepath.Join(dir, filepath.Base(models.DefaultImage))
	require.NoError(t, os.WriteFile(placeholder, []byte("placeholder"), 0o644))

	store, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), models.DefaultImage))
	_, err = os.Stat(placeholder)
	assert.NoError(t, err)
}

type fakeObjectAPI struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, params)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, params)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3ImageStore(t *testing.T) {
	fake := &fakeObjectAPI{}
	store := NewS3ImageStore(fake, "coproject-images", "https://cdn.coproject.dk/")
	ctx := context.Background()

	path, err := store.Save(ctx, "me.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)
	require.Len(t, fake.puts, 1)

	put := fake.puts[0]
	assert.Equal(t, "coproject-images", aws.ToString(put.Bucket))
	assert.True(t, strings.HasPrefix(aws.ToString(put.Key), "images/"))
	assert.Equal(t, "image/jpeg", aws.ToString(put.ContentType))
	assert.Equal(t, "https://cdn.coproject.dk/"+aws.ToString(put.Key), path)

	require.NoError(t, store.Delete(ctx, path))
	require.Len(t, fake.deletes, 1)
	assert.Equal(t, aws.ToString(put.Key), aws.ToString(fake.deletes[0].Key))

	require.NoError(t, store.Delete(ctx, models.DefaultImage))
	require.NoError(t, store.Delete(ctx, "https://elsewhere.example.com/images/x.png"))
	assert.Len(t, fake.deletes, 1)
}

func TestS3ImageStore_Errors(t *testing.T) {
	fake := &fakeObjectAPI{err: errors.New("access denied")}
	store := NewS3ImageStore(fake, "bucket", "https://cdn.coproject.dk")
	ctx := context.Background()

	_, err := store.Save(ctx, "me.png", []byte("png"))
	assert.True(t, errs.IsStorageError(err))

	_, err = store.Save(ctx, "me.txt", []byte("text"))
	assert.True(t, errs.IsInvalidFieldError(err))
	assert.Len(t, fake.puts, 1)

	err = store.Delete(ctx, "https://cdn.coproject.dk/images/x.png")
	assert.True(t, errs.IsStorageError(err))
}

func TestNewImageStore(t *testing.T) {
	store, err := NewImageStore(context.Background(), map[string]string{"IMAGE_DIR": t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalImageStore{}, store)

	_, err = NewImageStore(context.Background(), map[string]string{"IMAGE_STORE": "ftp"})
	assert.True(t, errs.IsConfigError(err))

	_, err = NewImageStore(context.Background(), map[string]string{"IMAGE_STORE": "s3"})
	assert.True(t, errs.IsEnvironmentVariableError(err))
}
