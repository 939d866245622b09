package storage

import (
	"context"
	"io"
)

type Object struct {
	Name string
	Size int64
}

type Provider interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	ObjectSize(ctx context.Context, bucket, key string) (int64, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	// ListObjects returns every object below prefix. Names are keys relative
	// to the bucket.
	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)
}
