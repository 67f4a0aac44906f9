package adapter

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
)

// fileKV implements KVStore with one file per key under a directory
type fileKV struct {
	dir  string
	opts kvOptions
}

// NewFileKV creates a KV store rooted at dir. The directory is created if it does not exist.
func NewFileKV(dir string, opts ...KVOption) (KVStore, error) {
	if dir == "" {
		return nil, goerr.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}

	kv := &fileKV{dir: dir}
	for _, opt := range opts {
		opt(&kv.opts)
	}
	return kv, nil
}

func (f *fileKV) path(key string) string {
	// Escaping keeps every key inside dir, whatever characters it contains.
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *fileKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read item", goerr.V("key", key))
	}
	return string(data), true, nil
}

func (f *fileKV) SetItem(ctx context.Context, key, value string) error {
	if err := f.opts.checkQuota(key, value); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("key", key))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to write item", goerr.V("key", key))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return goerr.Wrap(err, "failed to sync item", goerr.V("key", key))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close item", goerr.V("key", key))
	}

	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return goerr.Wrap(err, "failed to commit item", goerr.V("key", key))
	}
	return nil
}

func (f *fileKV) RemoveItem(ctx context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to remove item", goerr.V("key", key))
	}
	return nil
}
