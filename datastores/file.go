package datastores

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/echoghi/v5/common/rcontext"
)

// file is a datastore rooted at a local directory. Keys map to slash-separated
// relative paths. The cursor is the last key of the previous page.
type file struct {
	basePath string
	pageSize int
}

func NewFile(basePath string, pageSize int) (Datastore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("file: a base path is required")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("file: error creating base directory: %w", err)
	}
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &file{basePath: basePath, pageSize: pageSize}, nil
}

func (f *file) Kind() string {
	return "file"
}

func (f *file) pathFor(key string) (string, error) {
	p := filepath.Join(f.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(f.basePath, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("file: invalid key %q", key)
	}
	return p, nil
}

func (f *file) ListPage(ctx rcontext.RequestContext, prefix string, cursor string) (*Page, error) {
	keys := make([]string, 0)
	sizes := make(map[string]ObjectInfo)
	err := filepath.WalkDir(f.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) || key <= cursor {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		keys = append(keys, key)
		sizes[key] = ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file: error listing: %w", err)
	}

	sort.Strings(keys)
	page := &Page{Objects: make([]ObjectInfo, 0)}
	for i, k := range keys {
		if i == f.pageSize {
			page.NextCursor = keys[i-1]
			break
		}
		page.Objects = append(page.Objects, sizes[k])
	}
	return page, nil
}

func (f *file) DeleteMany(ctx rcontext.RequestContext, keys []string) error {
	for _, k := range keys {
		p, err := f.pathFor(k)
		if err != nil {
			return err
		}
		if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("file: error removing %s: %w", k, err)
		}
	}
	return nil
}

func (f *file) Put(ctx rcontext.RequestContext, key string, data []byte, contentType string) error {
	p, err := f.pathFor(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("file: error creating directory for %s: %w", key, err)
	}
	if err = os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("file: error writing %s: %w", key, err)
	}
	return nil
}

func (f *file) Get(ctx rcontext.RequestContext, key string) (io.ReadCloser, error) {
	p, err := f.pathFor(key)
	if err != nil {
		return nil, err
	}
	r, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("file: error opening %s: %w", key, err)
	}
	return r, nil
}
