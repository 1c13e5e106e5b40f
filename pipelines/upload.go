package pipelines

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/metrics"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type Uploader struct {
	ds  datastores.Datastore
	cfg config.UploadsConfig
}

func NewUploader(ds datastores.Datastore, cfg config.UploadsConfig) *Uploader {
	return &Uploader{ds: ds, cfg: cfg}
}

func (u *Uploader) policy(ctx rcontext.RequestContext) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if u.cfg.InitialBackoffMs > 0 {
		b.InitialInterval = time.Duration(u.cfg.InitialBackoffMs) * time.Millisecond
	}
	if u.cfg.MaxBackoffSeconds > 0 {
		b.MaxInterval = time.Duration(u.cfg.MaxBackoffSeconds) * time.Second
	}
	b.MaxElapsedTime = 0 // bounded by attempts instead

	var p backoff.BackOff = b
	if u.cfg.MaxAttempts > 0 {
		p = backoff.WithMaxRetries(b, uint64(u.cfg.MaxAttempts-1))
	}
	return backoff.WithContext(p, ctx.Context)
}

// Upload writes one object, retrying transient failures. It returns the last
// error once attempts run out or the context is cancelled.
func (u *Uploader) Upload(ctx rcontext.RequestContext, key string, data []byte, contentType string) error {
	attempt := 0
	op := func() error {
		attempt++
		err := u.ds.Put(ctx, key, data, contentType)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.UploadRetries.With(prometheus.Labels{"content_type": contentType}).Inc()
		ctx.Log.WithFields(logrus.Fields{
			"key":     key,
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("Upload failed, retrying: ", err)
	}

	if err := backoff.RetryNotify(op, u.policy(ctx), notify); err != nil {
		return fmt.Errorf("error uploading %s after %d attempt(s): %w", key, attempt, err)
	}

	ctx.Log.WithFields(logrus.Fields{
		"key":  key,
		"size": humanize.Bytes(uint64(len(data))),
	}).Debug("Uploaded")
	return nil
}

// Remove deletes objects written earlier in the run. Failures are logged and
// reported but never returned.
func (u *Uploader) Remove(ctx rcontext.RequestContext, keys ...string) {
	if err := u.ds.DeleteMany(ctx, keys); err != nil {
		sentry.CaptureException(err)
		ctx.Log.Warn("Error deleting upload (delete attempted due to sibling upload error): ", err)
	}
}
