package aws

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestObjectStorePut(t *testing.T) {
	client := &fakeS3{}
	store := NewObjectStore(client, "shopswift", "catalog/", "http://localstack:4566/", "")

	key, url, err := store.Put(context.Background(), "abc.jpg", "image/jpeg", []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, "catalog/abc.jpg", key)
	assert.Equal(t, "http://localstack:4566/shopswift/catalog/abc.jpg", url)
	assert.Equal(t, "shopswift", *client.input.Bucket)
	assert.Equal(t, "image/jpeg", *client.input.ContentType)
	assert.Equal(t, []byte("img"), client.body)
}

func TestObjectStorePutError(t *testing.T) {
	store := NewObjectStore(&fakeS3{err: errors.New("denied")}, "b", "", "", "")

	_, _, err := store.Put(context.Background(), "x.png", "image/png", nil)
	assert.Error(t, err)
}

func TestObjectStorePublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/p/k.jpg", NewObjectStore(nil, "b", "p/", "", "cdn.example.com/").PublicURL("p/k.jpg"))
	assert.Equal(t, "https://b.s3.amazonaws.com/k.jpg", NewObjectStore(nil, "b", "", "", "").PublicURL("k.jpg"))
}
