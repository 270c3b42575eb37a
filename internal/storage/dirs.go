package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func dirPrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// uploadDir puts every regular file under src into the bucket, keyed by its path
// relative to src.
func uploadDir(ctx context.Context, store ObjectStore, bucket, prefix, src string) error {
	prefix = dirPrefix(prefix)

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		return store.PutObject(ctx, bucket, prefix+filepath.ToSlash(rel), file)
	})
	if err != nil {
		return fmt.Errorf("error uploading %s to %s/%s: %w", src, bucket, prefix, err)
	}
	return nil
}

// downloadDir mirrors every object under prefix into dest. An existing dest is
// only replaced when overwrite is set.
func downloadDir(ctx context.Context, store ObjectStore, bucket, prefix, dest string, overwrite bool) error {
	_, err := os.Stat(dest)
	switch {
	case err == nil && !overwrite:
		return fmt.Errorf("destination %s already exists", dest)
	case err == nil:
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to clear destination %s: %w", dest, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to stat destination %s: %w", dest, err)
	}

	prefix = dirPrefix(prefix)
	objects, err := store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return fmt.Errorf("no objects found under %s/%s", bucket, prefix)
	}

	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dest, err)
	}
	for _, obj := range objects {
		local := filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(obj.Name, prefix)))
		if err := store.DownloadObject(ctx, bucket, obj.Name, local); err != nil {
			return err
		}
	}
	return nil
}
