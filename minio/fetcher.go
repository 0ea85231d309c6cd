// Package minio provides a docnav.Fetcher for documentation sets stored in
// MinIO or any S3-compatible object store.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/fwojciec/docnav"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Ensure Fetcher implements docnav.Fetcher at compile time.
var _ docnav.Fetcher = (*Fetcher)(nil)

// Config holds connection settings for NewClient.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// NewClient creates a client from static credentials.
func NewClient(cfg Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, docnav.WrapError(docnav.EINVALID, err, "create object store client for %q", cfg.Endpoint)
	}
	return client, nil
}

// Fetcher reads data files from a bucket.
type Fetcher struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewFetcher creates a Fetcher. prefix is prepended to all names
// (e.g. "pmp/html").
func NewFetcher(client *minio.Client, bucket, prefix string) *Fetcher {
	return &Fetcher{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (f *Fetcher) key(name string) string {
	return path.Join(f.prefix, docnav.CleanLocation(name))
}

// Fetch implements docnav.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := f.key(name)

	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, objectError(err, f.bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, objectError(err, f.bucket, key)
	}
	return data, nil
}

// Save uploads one data file.
func (f *Fetcher) Save(ctx context.Context, name string, data []byte) error {
	key := f.key(name)
	_, err := f.client.PutObject(ctx, f.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return docnav.WrapError(docnav.EFETCH, err, "upload %s/%s", f.bucket, key)
	}
	return nil
}

func objectError(err error, bucket, key string) error {
	errResp := minio.ToErrorResponse(err)
	switch errResp.Code {
	case "NoSuchKey", "NotFound":
		return docnav.Errorf(docnav.ENOTFOUND, "%s/%s not found", bucket, key)
	case "NoSuchBucket":
		return docnav.WrapError(docnav.EFETCH, err, "bucket %s does not exist", bucket)
	}
	return docnav.WrapError(docnav.EFETCH, err, "fetch %s/%s", bucket, key)
}
