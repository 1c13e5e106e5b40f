package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var ImagesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_images_processed_total",
}, []string{"album", "status"})
var AlbumsSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_albums_skipped_total",
}, []string{"reason"})
var RenditionBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_rendition_bytes_total",
}, []string{"kind"})
var RenditionTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "photosync_rendition_time_seconds",
}, []string{"kind"})
var UploadRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_upload_retries_total",
}, []string{"content_type"})
var ObjectsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "photosync_objects_deleted_total",
})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_s3_operations_total",
}, []string{"operation"})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "photosync_cache_misses_total",
}, []string{"cache"})

func init() {
	prometheus.MustRegister(ImagesProcessed)
	prometheus.MustRegister(AlbumsSkipped)
	prometheus.MustRegister(RenditionBytes)
	prometheus.MustRegister(RenditionTime)
	prometheus.MustRegister(UploadRetries)
	prometheus.MustRegister(ObjectsDeleted)
	prometheus.MustRegister(S3Operations)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}
