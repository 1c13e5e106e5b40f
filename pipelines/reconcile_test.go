package pipelines

import (
	"errors"
	"fmt"
	"testing"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/stretchr/testify/assert"
)

func testContext() rcontext.RequestContext {
	cfg := config.NewDefaultMainConfig()
	return rcontext.Initial(&cfg)
}

func TestClearBucketPreservesProtectedAcrossPages(t *testing.T) {
	ctx := testContext()
	store := newMemoryStore(3)
	for i := 0; i < 5; i++ {
		store.seed(fmt.Sprintf("albums/%d.json", i))
		store.seed(fmt.Sprintf("italy/%d.webp", i))
		store.seed(fmt.Sprintf("italy/%d-preview.jpg", i))
	}
	store.seed("albumsx/not-protected.webp")

	r := NewReconciler(store, []string{"albums/"})
	stats, err := r.ClearBucket(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 5, stats.Preserved)
	assert.Equal(t, 11, stats.Deleted)
	assert.Greater(t, stats.Pages, 1)

	remaining := store.keys()
	assert.Len(t, remaining, 5)
	for _, k := range remaining {
		assert.True(t, r.IsProtected(k), k)
	}
	for _, call := range store.deleteCalls {
		for _, k := range call {
			assert.False(t, r.IsProtected(k), k)
		}
	}
}

func TestClearBucketSkipsDeleteForProtectedOnlyPage(t *testing.T) {
	ctx := testContext()
	store := newMemoryStore(2)
	store.seed("albums/a.json", "albums/b.json", "zz/c.webp")

	stats, err := NewReconciler(store, []string{"albums/"}).ClearBucket(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Pages)
	assert.Len(t, store.deleteCalls, 1)
	assert.Equal(t, []string{"zz/c.webp"}, store.deleteCalls[0])
}

func TestClearBucketIsIdempotent(t *testing.T) {
	ctx := testContext()
	store := newMemoryStore(1000)
	store.seed("albums/a.json", "italy/x.webp")
	r := NewReconciler(store, []string{"albums/"})

	_, err := r.ClearBucket(ctx)
	assert.NoError(t, err)
	stats, err := r.ClearBucket(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 1, stats.Preserved)
	assert.Len(t, store.deleteCalls, 1)
	assert.Equal(t, []string{"albums/a.json"}, store.keys())
}

func TestClearBucketEmptyStore(t *testing.T) {
	stats, err := NewReconciler(newMemoryStore(10), []string{"albums/"}).ClearBucket(testContext())
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 0, stats.Deleted)
}

func TestClearBucketListFailure(t *testing.T) {
	store := newMemoryStore(10)
	store.failList = true
	_, err := NewReconciler(store, []string{"albums/"}).ClearBucket(testContext())
	assert.True(t, errors.Is(err, errInjected))
}

func TestClearAlbumsLeavesOtherAlbums(t *testing.T) {
	ctx := testContext()
	store := newMemoryStore(2)
	store.seed("albums/italy.json", "italy/a.webp", "italy/a-preview.jpg", "italy/b.webp", "italyx/c.webp", "spain/d.webp")

	stats, err := NewReconciler(store, []string{"albums/"}).ClearAlbums(ctx, []string{"italy"})
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Deleted)
	assert.Equal(t, []string{"albums/italy.json", "italyx/c.webp", "spain/d.webp"}, store.keys())
}
