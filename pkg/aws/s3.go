package aws

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3PutAPI is the subset of the S3 client used for uploads.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client creates a path-style S3 client from AWS config.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// ObjectStore uploads objects into one bucket under a key prefix.
type ObjectStore struct {
	client    S3PutAPI
	bucket    string
	prefix    string
	endpoint  string
	cdnDomain string
}

func NewObjectStore(client S3PutAPI, bucket, prefix, endpoint, cdnDomain string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix, endpoint: endpoint, cdnDomain: cdnDomain}
}

// Put stores data under prefix+name and returns the object key and its public URL.
func (o *ObjectStore) Put(ctx context.Context, name, contentType string, data []byte) (string, string, error) {
	key := o.prefix + name
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(o.bucket),
		Key:         sdkaws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: sdkaws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("s3 put object %s failed: %w", key, err)
	}
	return key, o.PublicURL(key), nil
}

// PublicURL returns the URL an object is served from.
func (o *ObjectStore) PublicURL(key string) string {
	switch {
	case o.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(o.cdnDomain, "/"), key)
	case o.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(o.endpoint, "/"), o.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", o.bucket, key)
	}
}
