package uploads

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

var _ FileStore = (*LocalStore)(nil)

// LocalStore keeps upload files on the local filesystem, used in development
// and tests.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (l *LocalStore) path(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	path := l.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	return err
}

func (l *LocalStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	src, err := os.Open(l.path(srcKey))
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := l.path(dstKey)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(l.path(key))
}
