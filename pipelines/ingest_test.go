package pipelines

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/renditions"
	"github.com/stretchr/testify/assert"
)

var keyPattern = regexp.MustCompile(`^italy/[0-9a-f]{16}(\.webp|-preview\.(jpg|png))$`)

type fakeRenderer struct {
	calls int
}

func (f *fakeRenderer) Render(ctx rcontext.RequestContext, kind renditions.Kind, src []byte) (*renditions.Output, error) {
	f.calls++
	if bytes.Equal(src, []byte("bad")) {
		return nil, renditions.ErrUnsupportedSource
	}
	return &renditions.Output{Kind: kind, ContentType: kind.ContentType(), Data: []byte(kind)}, nil
}

type fixture struct {
	cfg   *config.MainSyncConfig
	root  string
	store *memoryStore
	fake  *fakeRenderer
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	cfg := config.NewDefaultMainConfig()
	cfg.Sources.AlbumsPath = filepath.Join(root, "albums")
	cfg.Sources.SourcesPath = filepath.Join(root, "photos")
	cfg.Plan.Path = filepath.Join(root, "plan.yaml")
	cfg.Uploads = fastUploads(2)
	assert.NoError(t, os.MkdirAll(cfg.Sources.AlbumsPath, 0755))
	assert.NoError(t, os.MkdirAll(cfg.Sources.SourcesPath, 0755))
	return &fixture{cfg: &cfg, root: root, store: newMemoryStore(1000), fake: &fakeRenderer{}}
}

func (f *fixture) album(t *testing.T, name string, withSources bool, files map[string]string) {
	assert.NoError(t, os.MkdirAll(filepath.Join(f.cfg.Sources.AlbumsPath, name), 0755))
	if !withSources {
		return
	}
	dir := filepath.Join(f.cfg.Sources.SourcesPath, name+"-source")
	assert.NoError(t, os.MkdirAll(dir, 0755))
	for n, content := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(content), 0644))
	}
}

func (f *fixture) run(t *testing.T, opts RunOptions) (*Summary, error) {
	ctx := rcontext.Initial(f.cfg)
	return NewRunner(f.cfg, f.store, f.fake).Run(ctx, opts)
}

func TestRunUploadsBothRenditions(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"photo1.jpg": "a", "photo2.png": "b", ".DS_Store": "x", "notes.txt": "x"})
	f.store.seed("albums/italy.json", "old/stale.webp")

	summary, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Count(StatusSucceeded))
	assert.False(t, summary.HasFailures())
	assert.Equal(t, 1, summary.Cleared.Deleted)

	keys := f.store.keys()
	assert.Len(t, keys, 5)
	assert.Equal(t, "albums/italy.json", keys[0])
	for _, k := range keys[1:] {
		assert.Regexp(t, keyPattern, k)
	}
	for _, r := range summary.Images {
		assert.NotEqual(t, r.DisplayKey, r.PreviewKey)
		assert.Equal(t, renditions.DisplayContentType, f.store.types[r.DisplayKey])
		assert.Equal(t, renditions.PreviewContentType, f.store.types[r.PreviewKey])
	}
	assert.NotEqual(t, summary.Images[0].Id, summary.Images[1].Id)

	// clean runs leave no plan behind
	_, err = os.Stat(f.cfg.Plan.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestRunSkipsAlbumWithoutSources(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"photo1.jpg": "a"})
	f.album(t, "spain", false, nil)
	f.album(t, "empty", true, map[string]string{"readme.md": "x"})

	summary, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Count(StatusSucceeded))
	assert.Len(t, summary.SkippedAlbums, 2)
	assert.Len(t, f.store.keys(), 2)
}

func TestRunIsolatesImageFailures(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "bad", "b.jpg": "fine"})

	summary, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Count(StatusFailed))
	assert.Equal(t, 1, summary.Count(StatusSucceeded))
	assert.True(t, summary.HasFailures())
	assert.Len(t, f.store.keys(), 2)

	// a failed run leaves the plan for resuming
	_, err = os.Stat(f.cfg.Plan.Path)
	assert.NoError(t, err)
}

func TestRunRemovesDisplayWhenPreviewFails(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a", "b.jpg": "b"})
	f.store.failPuts["-preview"] = 1 * f.cfg.Uploads.MaxAttempts

	summary, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Count(StatusFailed))
	assert.Equal(t, 1, summary.Count(StatusSucceeded))

	keys := f.store.keys()
	assert.Len(t, keys, 2)
	failed := summary.Images[0]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.NotContains(t, keys, failed.DisplayKey)
}

func TestRunAbortsOnUploadFailureWhenConfigured(t *testing.T) {
	f := newFixture(t)
	f.cfg.Uploads.AbortOnFailure = true
	f.album(t, "italy", true, map[string]string{"a.jpg": "a", "b.jpg": "b"})
	f.store.failPuts[".webp"] = -1

	summary, err := f.run(t, RunOptions{})
	assert.True(t, errors.Is(err, ErrUploadAborted))
	assert.Len(t, summary.Images, 1)
	assert.Empty(t, f.store.keys())
}

func TestRunResumesFromPlan(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a", "b.jpg": "b"})
	f.store.failPuts["-preview"] = 1 * f.cfg.Uploads.MaxAttempts

	first, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	assert.Equal(t, 1, first.Count(StatusFailed))
	failedId := first.Images[0].Id
	doneKeys := f.store.keys()

	f.fake.calls = 0
	second, err := f.run(t, RunOptions{Resume: true})
	assert.NoError(t, err)
	assert.Equal(t, 1, second.Count(StatusSkipped))
	assert.Equal(t, 1, second.Count(StatusSucceeded))
	assert.Equal(t, failedId, second.Images[0].Id)
	assert.Equal(t, 2, f.fake.calls)

	keys := f.store.keys()
	assert.Len(t, keys, 4)
	for _, k := range doneKeys {
		assert.Contains(t, keys, k)
	}
}

func TestRunOnlyNamedAlbums(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a"})
	f.album(t, "spain", true, map[string]string{"a.jpg": "a"})

	summary, err := f.run(t, RunOptions{Albums: []string{"spain", "atlantis"}, KeepBucket: true})
	assert.NoError(t, err)
	assert.Nil(t, summary.Cleared)
	assert.Len(t, summary.Images, 1)
	assert.Equal(t, "spain", summary.Images[0].Album)
	assert.Equal(t, []SkippedAlbum{{Album: "atlantis", Reason: "unknown album"}}, summary.SkippedAlbums)
}

func TestRunStopsOnClearFailure(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a"})
	f.store.failList = true

	_, err := f.run(t, RunOptions{})
	assert.True(t, errors.Is(err, errInjected))
	assert.Equal(t, 0, f.fake.calls)
}

func TestRunNamedAlbumsOnlyClearsThoseAlbums(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a"})
	f.album(t, "spain", true, map[string]string{"a.jpg": "a"})
	f.store.seed("albums/cover.json", "italy/0000000000000000.webp", "spain/1111111111111111.webp", "spain/1111111111111111-preview.jpg")

	summary, err := f.run(t, RunOptions{Albums: []string{"italy"}})
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Cleared.Deleted)
	assert.Equal(t, 1, summary.Count(StatusSucceeded))

	keys := f.store.keys()
	assert.Len(t, keys, 5)
	assert.Contains(t, keys, "albums/cover.json")
	assert.Contains(t, keys, "spain/1111111111111111.webp")
	assert.Contains(t, keys, "spain/1111111111111111-preview.jpg")
	assert.NotContains(t, keys, "italy/0000000000000000.webp")
}

func TestResumeWithoutPlanFails(t *testing.T) {
	f := newFixture(t)
	f.album(t, "italy", true, map[string]string{"a.jpg": "a"})

	_, err := f.run(t, RunOptions{})
	assert.NoError(t, err)
	before := f.store.keys()
	f.fake.calls = 0

	_, err = f.run(t, RunOptions{Resume: true})
	assert.True(t, errors.Is(err, ErrNoPlan))
	assert.Equal(t, 0, f.fake.calls)
	assert.Equal(t, before, f.store.keys())
}
