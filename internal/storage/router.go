package storage

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"
)

const s3Scheme = "s3://"

var ErrRemoteNotConfigured = errors.New("s3 storage is not configured")

// Location is a parsed input or output path. Local paths use the containing
// directory as the bucket.
type Location struct {
	Bucket string
	Key    string
	Remote bool
}

func ParseLocation(p string) Location {
	if rest, ok := strings.CutPrefix(p, s3Scheme); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		return Location{Bucket: bucket, Key: key, Remote: true}
	}
	return Location{Bucket: filepath.Dir(p), Key: filepath.Base(p)}
}

// Router dispatches paths to the local filesystem or, for s3://bucket/key
// paths, to the remote provider.
type Router struct {
	local  Provider
	remote Provider
}

// NewRouter accepts a nil remote provider, in which case s3:// paths fail
// with ErrRemoteNotConfigured.
func NewRouter(remote Provider) *Router {
	return &Router{local: &LocalProvider{}, remote: remote}
}

func (r *Router) provider(loc Location) (Provider, error) {
	if !loc.Remote {
		return r.local, nil
	}
	if r.remote == nil {
		return nil, ErrRemoteNotConfigured
	}
	return r.remote, nil
}

func (r *Router) Read(ctx context.Context, p string) ([]byte, error) {
	loc := ParseLocation(p)
	provider, err := r.provider(loc)
	if err != nil {
		return nil, err
	}
	return provider.GetObject(ctx, loc.Bucket, loc.Key)
}

func (r *Router) Size(ctx context.Context, p string) (int64, error) {
	loc := ParseLocation(p)
	provider, err := r.provider(loc)
	if err != nil {
		return 0, err
	}
	return provider.ObjectSize(ctx, loc.Bucket, loc.Key)
}

func (r *Router) Write(ctx context.Context, p string, text string) error {
	loc := ParseLocation(p)
	provider, err := r.provider(loc)
	if err != nil {
		return err
	}
	return provider.PutObject(ctx, loc.Bucket, loc.Key, strings.NewReader(text))
}

// List returns the names of every object under dir, relative to dir.
func (r *Router) List(ctx context.Context, dir string) ([]string, error) {
	var (
		bucket, prefix string
		remote         bool
	)
	if rest, ok := strings.CutPrefix(dir, s3Scheme); ok {
		bucket, prefix, _ = strings.Cut(rest, "/")
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		remote = true
	} else {
		bucket = dir
	}

	provider, err := r.provider(Location{Bucket: bucket, Remote: remote})
	if err != nil {
		return nil, err
	}

	objects, err := provider.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Name, prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Join appends a relative object name to a local or s3:// directory.
func Join(dir, name string) string {
	if strings.HasPrefix(dir, s3Scheme) {
		return strings.TrimSuffix(dir, "/") + "/" + path.Clean(name)
	}
	return filepath.Join(dir, filepath.FromSlash(name))
}
