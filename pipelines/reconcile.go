package pipelines

import (
	"fmt"
	"strings"

	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/datastores"
	"github.com/echoghi/v5/metrics"
	"github.com/sirupsen/logrus"
)

type ClearStats struct {
	Pages     int
	Deleted   int
	Preserved int
}

// Reconciler empties the remote store ahead of a fresh upload, leaving the
// protected prefixes alone.
type Reconciler struct {
	ds        datastores.Datastore
	protected []string
}

func NewReconciler(ds datastores.Datastore, protectedPrefixes []string) *Reconciler {
	return &Reconciler{ds: ds, protected: protectedPrefixes}
}

func (r *Reconciler) IsProtected(key string) bool {
	for _, p := range r.protected {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// ClearBucket removes every unprotected object in the store.
func (r *Reconciler) ClearBucket(ctx rcontext.RequestContext) (*ClearStats, error) {
	return r.ClearPrefix(ctx, "")
}

// ClearAlbums removes the renditions of the named albums only.
func (r *Reconciler) ClearAlbums(ctx rcontext.RequestContext, names []string) (*ClearStats, error) {
	total := &ClearStats{}
	for _, name := range names {
		stats, err := r.ClearPrefix(ctx, name+"/")
		total.Pages += stats.Pages
		total.Deleted += stats.Deleted
		total.Preserved += stats.Preserved
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Reconciler) ClearPrefix(ctx rcontext.RequestContext, prefix string) (*ClearStats, error) {
	stats := &ClearStats{}
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := r.ds.ListPage(ctx, prefix, cursor)
		if err != nil {
			return stats, fmt.Errorf("error listing objects: %w", err)
		}
		stats.Pages++

		toDelete := make([]string, 0, len(page.Objects))
		for _, o := range page.Objects {
			if r.IsProtected(o.Key) {
				stats.Preserved++
				continue
			}
			toDelete = append(toDelete, o.Key)
		}

		if len(toDelete) > 0 {
			if err = r.ds.DeleteMany(ctx, toDelete); err != nil {
				return stats, fmt.Errorf("error deleting objects: %w", err)
			}
			stats.Deleted += len(toDelete)
			metrics.ObjectsDeleted.Add(float64(len(toDelete)))
		}

		ctx.Log.WithFields(logrus.Fields{
			"page":    stats.Pages,
			"deleted": len(toDelete),
		}).Debug("Cleared page")

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	ctx.Log.WithFields(logrus.Fields{
		"prefix":    prefix,
		"pages":     stats.Pages,
		"deleted":   stats.Deleted,
		"preserved": stats.Preserved,
	}).Info("Cleared")
	return stats, nil
}
