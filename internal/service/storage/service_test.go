package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objectName  string
	contentType string
	data        []byte
}

func (f *fakeUploader) Put(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	f.objectName = objectName
	f.contentType = contentType
	f.data = data
	return "https://cdn.example.com/chat/" + objectName, nil
}

func TestUploadImage(t *testing.T) {
	uploader := &fakeUploader{}
	svc := NewService(uploader)

	url, err := svc.UploadImage(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(uploader.objectName, "images/"))
	assert.True(t, strings.HasSuffix(uploader.objectName, ".jpg"))
	assert.Equal(t, "image/jpeg", uploader.contentType)
	assert.Equal(t, "https://cdn.example.com/chat/"+uploader.objectName, url)
}

func TestUploadImageUnsupportedType(t *testing.T) {
	svc := NewService(&fakeUploader{})

	_, err := svc.UploadImage(context.Background(), []byte("not an image"), "application/pdf")
	require.Error(t, err)
}

func TestUploadImageUniqueNames(t *testing.T) {
	uploader := &fakeUploader{}
	svc := NewService(uploader)

	_, err := svc.UploadImage(context.Background(), []byte{1}, "image/png")
	require.NoError(t, err)
	first := uploader.objectName

	_, err = svc.UploadImage(context.Background(), []byte{2}, "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, first, uploader.objectName)
}
