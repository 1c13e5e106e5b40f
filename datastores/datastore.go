package datastores

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Page is one slice of a listing. An empty NextCursor means the listing is done.
type Page struct {
	Objects    []ObjectInfo
	NextCursor string
}

// Datastore is the object store the pipeline writes renditions into.
type Datastore interface {
	Kind() string
	ListPage(ctx rcontext.RequestContext, prefix string, cursor string) (*Page, error)
	DeleteMany(ctx rcontext.RequestContext, keys []string) error
	Put(ctx rcontext.RequestContext, key string, data []byte, contentType string) error
	Get(ctx rcontext.RequestContext, key string) (io.ReadCloser, error)
}

// Open builds the datastore named by the configuration.
func Open(cfg config.DatastoreConfig) (Datastore, error) {
	switch cfg.Type {
	case "s3":
		return NewS3(cfg.S3, cfg.PageSize)
	case "file":
		return NewFile(cfg.File.Path, cfg.PageSize)
	default:
		return nil, fmt.Errorf("unknown datastore type %q", cfg.Type)
	}
}

// ListAll walks every page under the prefix.
func ListAll(ctx rcontext.RequestContext, ds Datastore, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)
	cursor := ""
	for {
		page, err := ds.ListPage(ctx, prefix, cursor)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Objects...)
		if page.NextCursor == "" {
			return objects, nil
		}
		cursor = page.NextCursor
	}
}

// ReadAll fetches an object's full contents.
func ReadAll(ctx rcontext.RequestContext, ds Datastore, key string) ([]byte, error) {
	r, err := ds.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
