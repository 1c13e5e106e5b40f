package pipelines

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/echoghi/v5/albums"
	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/metrics"
	"github.com/echoghi/v5/renditions"
	"github.com/echoghi/v5/util/ids"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var ErrUploadAborted = errors.New("upload failed and abortOnFailure is set")

type Renderer interface {
	Render(ctx rcontext.RequestContext, kind renditions.Kind, src []byte) (*renditions.Output, error)
}

type RunOptions struct {
	// Albums limits the run to the named albums. Empty means all of them.
	Albums []string
	// Resume continues the plan left by an interrupted run instead of starting over.
	Resume bool
	// KeepBucket skips clearing the remote store.
	KeepBucket bool
}

type Runner struct {
	cfg        *config.MainSyncConfig
	renderer   Renderer
	uploader   *Uploader
	reconciler *Reconciler
}

func NewRunner(cfg *config.MainSyncConfig, ds datastores.Datastore, renderer Renderer) *Runner {
	return &Runner{
		cfg:        cfg,
		renderer:   renderer,
		uploader:   NewUploader(ds, cfg.Uploads),
		reconciler: NewReconciler(ds, cfg.Datastore.ProtectedPrefixes),
	}
}

// Run clears the remote store and uploads both renditions of every source
// image, one album at a time. Per-image failures are recorded in the summary
// rather than returned.
func (r *Runner) Run(ctx rcontext.RequestContext, opts RunOptions) (*Summary, error) {
	summary := newSummary()
	defer func() {
		summary.Finished = time.Now()
	}()

	// Step 1: Load or start the plan
	var plan *Plan
	var err error
	if opts.Resume {
		plan, err = ResumePlan(r.cfg.Plan.Path)
		if err != nil {
			return summary, err
		}
		ctx.Log.Info("Resuming from ", r.cfg.Plan.Path)
	} else {
		plan = NewPlan(r.cfg.Plan.Path)
	}

	// Step 2: Work out which albums to process
	names, err := albums.ListAlbums(r.cfg.Sources.AlbumsPath)
	if err != nil {
		return summary, err
	}
	names = filterAlbums(ctx, names, opts.Albums, summary)

	// Step 3: Empty the remote store, or only the selected albums' part of it
	if !opts.Resume && !opts.KeepBucket {
		if len(opts.Albums) > 0 {
			ctx.Log.Info("Clearing selected albums...")
			summary.Cleared, err = r.reconciler.ClearAlbums(ctx, names)
		} else {
			ctx.Log.Info("Clearing bucket...")
			summary.Cleared, err = r.reconciler.ClearBucket(ctx)
		}
		if err != nil {
			return summary, fmt.Errorf("error clearing bucket: %w", err)
		}
	}

	// Step 4: Process each album in turn
	for _, name := range names {
		if err = ctx.Err(); err != nil {
			break
		}
		err = r.processAlbum(ctx.LogWithFields(logrus.Fields{"album": name}), name, plan, summary)
		if err != nil {
			break
		}
	}
	if saveErr := plan.Save(); saveErr != nil {
		ctx.Log.Warn("Error saving plan: ", saveErr)
	}
	if err != nil {
		return summary, err
	}

	// Step 5: A clean run leaves nothing to resume
	if !summary.HasFailures() {
		if err = plan.Remove(); err != nil {
			ctx.Log.Warn("Error removing plan: ", err)
		}
	}
	return summary, nil
}

func filterAlbums(ctx rcontext.RequestContext, names []string, only []string, summary *Summary) []string {
	if len(only) == 0 {
		return names
	}
	known := make(map[string]bool)
	for _, n := range names {
		known[n] = true
	}
	filtered := make([]string, 0, len(only))
	for _, n := range only {
		if !known[n] {
			ctx.Log.Warn("Unknown album: ", n)
			summary.SkippedAlbums = append(summary.SkippedAlbums, SkippedAlbum{Album: n, Reason: "unknown album"})
			metrics.AlbumsSkipped.With(prometheus.Labels{"reason": "unknown"}).Inc()
			continue
		}
		filtered = append(filtered, n)
	}
	return filtered
}

func (r *Runner) processAlbum(ctx rcontext.RequestContext, name string, plan *Plan, summary *Summary) error {
	album, err := albums.Resolve(r.cfg.Sources, name)
	if err != nil {
		if errors.Is(err, albums.ErrNoSourceDir) {
			ctx.Log.Warn("No source directory, skipping album")
			summary.SkippedAlbums = append(summary.SkippedAlbums, SkippedAlbum{Album: name, Reason: err.Error()})
			metrics.AlbumsSkipped.With(prometheus.Labels{"reason": "no_source"}).Inc()
			return nil
		}
		return err
	}

	images, err := albums.ListSourceImages(album, r.cfg.Sources)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		ctx.Log.Warn("No source images, skipping album")
		summary.SkippedAlbums = append(summary.SkippedAlbums, SkippedAlbum{Album: name, Reason: "no source images"})
		metrics.AlbumsSkipped.With(prometheus.Labels{"reason": "empty"}).Inc()
		return nil
	}

	ctx.Log.WithField("images", len(images)).Info("Processing album")

	gen := ids.NewGenerator(r.cfg.Ids.Bytes, r.cfg.Ids.MaxAttempts)
	for _, id := range plan.Ids(name) {
		gen.Reserve(id)
	}

	for _, img := range images {
		if err = ctx.Err(); err != nil {
			return err
		}
		res, uploadErr := r.processImage(ctx.LogWithFields(logrus.Fields{"source": img.Name}), img, gen, plan)
		summary.Images = append(summary.Images, res)
		metrics.ImagesProcessed.With(prometheus.Labels{"album": name, "status": string(res.Status)}).Inc()
		if uploadErr != nil && r.cfg.Uploads.AbortOnFailure {
			return fmt.Errorf("%w: %v", ErrUploadAborted, uploadErr)
		}
	}
	return nil
}

// processImage renders and uploads one source. The returned error is only set
// for upload failures; everything else is reported through the result.
func (r *Runner) processImage(ctx rcontext.RequestContext, img *albums.SourceImage, gen *ids.Generator, plan *Plan) (*ImageResult, error) {
	res := &ImageResult{Album: img.Album, Source: img.Name}
	fail := func(err error) *ImageResult {
		sentry.CaptureException(err)
		ctx.Log.Error("Error processing image: ", err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}

	// Step 1: Check for earlier progress
	entry := plan.Lookup(img.Album, img.Name)
	if entry.Complete() {
		ctx.Log.Debug("Already uploaded")
		res.Id = entry.Id
		res.Status = StatusSkipped
		res.Reason = "already uploaded"
		return res, nil
	}

	// Step 2: Assign an identifier
	if entry == nil {
		id, err := gen.Next()
		if err != nil {
			return fail(err), nil
		}
		entry = &PlanEntry{Id: id}
	}
	res.Id = entry.Id
	res.DisplayKey = renditions.DisplayKey(img.Album, entry.Id)
	res.PreviewKey = renditions.PreviewKey(img.Album, entry.Id, img.Ext)
	ctx = ctx.LogWithFields(logrus.Fields{"id": entry.Id})

	// Step 3: Render both renditions before touching the store
	src, err := os.ReadFile(img.Path)
	if err != nil {
		return fail(err), nil
	}
	display, err := r.renderer.Render(ctx, renditions.KindDisplay, src)
	if err != nil {
		return fail(err), nil
	}
	preview, err := r.renderer.Render(ctx, renditions.KindPreview, src)
	if err != nil {
		return fail(err), nil
	}
	res.DisplayBytes = len(display.Data)
	res.PreviewBytes = len(preview.Data)

	plan.Record(img.Album, img.Name, *entry)
	r.savePlan(ctx, plan)

	// Step 4: Upload the display rendition
	if !entry.Display {
		if err = r.uploader.Upload(ctx, res.DisplayKey, display.Data, display.ContentType); err != nil {
			return fail(err), err
		}
		entry.Display = true
		plan.Record(img.Album, img.Name, *entry)
		r.savePlan(ctx, plan)
	}

	// Step 5: Upload the preview, undoing the display upload if it cannot land
	if err = r.uploader.Upload(ctx, res.PreviewKey, preview.Data, preview.ContentType); err != nil {
		r.uploader.Remove(ctx, res.DisplayKey)
		entry.Display = false
		plan.Record(img.Album, img.Name, *entry)
		r.savePlan(ctx, plan)
		return fail(err), err
	}
	entry.Preview = true
	plan.Record(img.Album, img.Name, *entry)
	r.savePlan(ctx, plan)

	ctx.Log.WithFields(logrus.Fields{
		"display": humanize.Bytes(uint64(res.DisplayBytes)),
		"preview": humanize.Bytes(uint64(res.PreviewBytes)),
	}).Info("Uploaded image")
	res.Status = StatusSucceeded
	return res, nil
}

func (r *Runner) savePlan(ctx rcontext.RequestContext, plan *Plan) {
	if err := plan.Save(); err != nil {
		ctx.Log.Warn("Error saving plan: ", err)
	}
}
