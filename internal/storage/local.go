package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type LocalProvider struct {
	baseDir string
}

func (p *LocalProvider) fullpath(bucket, key string) string {
	return filepath.Join(p.baseDir, bucket, key)
}

var _ Provider = &LocalProvider{}

// NewLocalProvider roots buckets under dir. An empty dir resolves buckets
// against the working directory, so a bucket may be any directory path.
func NewLocalProvider(dir string) (*LocalProvider, error) {
	if dir == "" {
		return &LocalProvider{}, nil
	}

	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", dir, err)
	}

	return &LocalProvider{baseDir: baseDir}, nil
}

func (p *LocalProvider) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(p.fullpath(bucket, key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", p.fullpath(bucket, key), err)
	}
	return data, nil
}

func (p *LocalProvider) ObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	info, err := os.Stat(p.fullpath(bucket, key))
	if err != nil {
		return 0, fmt.Errorf("failed to stat file %s: %w", p.fullpath(bucket, key), err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", p.fullpath(bucket, key))
	}
	return info.Size(), nil
}

func (p *LocalProvider) PutObject(ctx context.Context, bucket, key string, data io.Reader) error {
	path := p.fullpath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

func (p *LocalProvider) ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error) {
	root := p.fullpath(bucket, "")

	var objects []Object
	err := filepath.WalkDir(p.fullpath(bucket, prefix), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		objects = append(objects, Object{Name: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", p.fullpath(bucket, prefix), err)
	}

	return objects, nil
}
