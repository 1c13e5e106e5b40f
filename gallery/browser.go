package gallery

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/metrics"
	"github.com/echoghi/v5/pool"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/webp"
)

// Browser reads the uploaded gallery back the way the site does.
type Browser struct {
	ds           datastores.Datastore
	cfg          config.GalleryConfig
	publicDomain string
	protected    []string
	listings     *cache.Cache
}

type Photo struct {
	PreviewKey  string
	DisplayKey  string
	PreviewUrl  string
	DisplayUrl  string
	Width       int
	Height      int
	Placeholder string
	Blurhash    string
	Err         error
}

func NewBrowser(ds datastores.Datastore, cfg *config.MainSyncConfig) *Browser {
	ttl := time.Duration(cfg.Gallery.CacheSeconds) * time.Second
	return &Browser{
		ds:           ds,
		cfg:          cfg.Gallery,
		publicDomain: cfg.Datastore.PublicDomain,
		protected:    cfg.Datastore.ProtectedPrefixes,
		listings:     cache.New(ttl, ttl*2),
	}
}

func (b *Browser) list(ctx rcontext.RequestContext, prefix string) ([]datastores.ObjectInfo, error) {
	if v, ok := b.listings.Get(prefix); ok {
		metrics.CacheHits.With(prometheus.Labels{"cache": "listings"}).Inc()
		return v.([]datastores.ObjectInfo), nil
	}
	metrics.CacheMisses.With(prometheus.Labels{"cache": "listings"}).Inc()

	objects, err := datastores.ListAll(ctx, b.ds, prefix)
	if err != nil {
		return nil, err
	}
	b.listings.Set(prefix, objects, cache.DefaultExpiration)
	return objects, nil
}

func (b *Browser) PhotoCount(ctx rcontext.RequestContext, album string) (int, error) {
	objects, err := b.list(ctx, album+"/")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range objects {
		if IsDisplayKey(o.Key) {
			n++
		}
	}
	return n, nil
}

func (b *Browser) AlbumPreviews(ctx rcontext.RequestContext, album string) ([]string, error) {
	objects, err := b.list(ctx, album+"/")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for _, o := range objects {
		if IsPreviewKey(o.Key) {
			keys = append(keys, o.Key)
		}
	}
	return keys, nil
}

func (b *Browser) PublicUrl(key string) string {
	return fmt.Sprintf("https://%s/%s", b.publicDomain, key)
}

// Inspect loads every display rendition of an album to report its dimensions and
// placeholder. Individual failures are set on the photo.
func (b *Browser) Inspect(ctx rcontext.RequestContext, album string) ([]*Photo, error) {
	previews, err := b.AlbumPreviews(ctx, album)
	if err != nil {
		return nil, err
	}

	queue, err := pool.NewQueue(b.cfg.NumWorkers, "gallery-inspect")
	if err != nil {
		return nil, err
	}
	defer queue.Release()

	photos := make([]*Photo, len(previews))
	var lock sync.Mutex
	for i, key := range previews {
		i, key := i, key
		err = queue.Schedule(func() {
			p := b.inspect(ctx, key)
			lock.Lock()
			photos[i] = p
			lock.Unlock()
		})
		if err != nil {
			return nil, err
		}
	}
	queue.Wait()

	for i, p := range photos {
		// only nil if the inspection panicked
		if p == nil {
			photos[i] = &Photo{PreviewKey: previews[i], Err: fmt.Errorf("inspection of %s did not complete", previews[i])}
		}
	}
	return photos, nil
}

func (b *Browser) inspect(ctx rcontext.RequestContext, previewKey string) *Photo {
	p := &Photo{
		PreviewKey: previewKey,
		DisplayKey: DisplayKeyForPreview(previewKey),
		PreviewUrl: b.PublicUrl(previewKey),
	}
	p.DisplayUrl = b.PublicUrl(p.DisplayKey)
	log := ctx.Log.WithFields(logrus.Fields{"display": p.DisplayKey})

	data, err := datastores.ReadAll(ctx, b.ds, p.DisplayKey)
	if err != nil {
		p.Err = err
		return p
	}
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		p.Err = fmt.Errorf("error decoding %s: %w", p.DisplayKey, err)
		return p
	}
	p.Width = img.Bounds().Dx()
	p.Height = img.Bounds().Dy()

	p.Placeholder, p.Blurhash, err = Placeholder(img, b.cfg)
	if err != nil {
		log.Warn("Error building placeholder: ", err)
	}
	return p
}

type Report struct {
	Albums         []string
	Objects        int
	OrphanPreviews []string
	OrphanDisplays []string
	Stray          []string
}

func (r *Report) Consistent() bool {
	return len(r.OrphanPreviews) == 0 && len(r.OrphanDisplays) == 0 && len(r.Stray) == 0
}

// Verify checks that every display rendition has a preview sibling and the
// other way around.
func (b *Browser) Verify(ctx rcontext.RequestContext) (*Report, error) {
	objects, err := datastores.ListAll(ctx, b.ds, "")
	if err != nil {
		return nil, err
	}

	report := &Report{
		Albums:         make([]string, 0),
		OrphanPreviews: make([]string, 0),
		OrphanDisplays: make([]string, 0),
		Stray:          make([]string, 0),
	}
	displays := make(map[string]bool)
	previewed := make(map[string]bool)
	previews := make([]string, 0)
	albums := make(map[string]bool)
	for _, o := range objects {
		if b.isProtected(o.Key) {
			continue
		}
		report.Objects++
		album := AlbumOf(o.Key)
		if album == "" {
			report.Stray = append(report.Stray, o.Key)
			continue
		}
		albums[album] = true
		switch {
		case IsPreviewKey(o.Key):
			previews = append(previews, o.Key)
			previewed[DisplayKeyForPreview(o.Key)] = true
		case IsDisplayKey(o.Key):
			displays[o.Key] = true
		default:
			report.Stray = append(report.Stray, o.Key)
		}
	}

	for _, k := range previews {
		if !displays[DisplayKeyForPreview(k)] {
			report.OrphanPreviews = append(report.OrphanPreviews, k)
		}
	}
	for k := range displays {
		if !previewed[k] {
			report.OrphanDisplays = append(report.OrphanDisplays, k)
		}
	}
	for a := range albums {
		report.Albums = append(report.Albums, a)
	}
	sort.Strings(report.Albums)
	sort.Strings(report.OrphanDisplays)
	return report, nil
}

func (b *Browser) isProtected(key string) bool {
	for _, p := range b.protected {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
