package pipelines

import (
	"bytes"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/datastores"
)

var errInjected = errors.New("injected failure")

// memoryStore pages lexically by key, like the file datastore.
type memoryStore struct {
	lock        sync.Mutex
	pageSize    int
	objects     map[string][]byte
	types       map[string]string
	deleteCalls [][]string
	puts        int
	// key substring -> remaining failures, negative fails forever
	failPuts map[string]int
	failList bool
}

func newMemoryStore(pageSize int) *memoryStore {
	return &memoryStore{
		pageSize: pageSize,
		objects:  make(map[string][]byte),
		types:    make(map[string]string),
		failPuts: make(map[string]int),
	}
}

func (m *memoryStore) Kind() string {
	return "memory"
}

func (m *memoryStore) seed(keys ...string) {
	for _, k := range keys {
		m.objects[k] = []byte(k)
	}
}

func (m *memoryStore) keys() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *memoryStore) ListPage(ctx rcontext.RequestContext, prefix string, cursor string) (*datastores.Page, error) {
	if m.failList {
		return nil, errInjected
	}
	page := &datastores.Page{Objects: make([]datastores.ObjectInfo, 0)}
	for _, k := range m.keys() {
		if !strings.HasPrefix(k, prefix) || k <= cursor {
			continue
		}
		if len(page.Objects) == m.pageSize {
			page.NextCursor = page.Objects[len(page.Objects)-1].Key
			break
		}
		page.Objects = append(page.Objects, datastores.ObjectInfo{Key: k, Size: int64(len(m.objects[k]))})
	}
	return page, nil
}

func (m *memoryStore) DeleteMany(ctx rcontext.RequestContext, keys []string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.deleteCalls = append(m.deleteCalls, keys)
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *memoryStore) Put(ctx rcontext.RequestContext, key string, data []byte, contentType string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.puts++
	for sub, remaining := range m.failPuts {
		if remaining != 0 && strings.Contains(key, sub) {
			if remaining > 0 {
				m.failPuts[sub] = remaining - 1
			}
			return errInjected
		}
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Get(ctx rcontext.RequestContext, key string) (io.ReadCloser, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	b, ok := m.objects[key]
	if !ok {
		return nil, datastores.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
