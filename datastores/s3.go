package datastores

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type s3 struct {
	client       *minio.Client
	core         *minio.Core
	bucket       string
	cacheControl string
	pageSize     int
}

// R2Endpoint is the S3 API host of a Cloudflare R2 account.
func R2Endpoint(accountId string) string {
	return fmt.Sprintf("%s.r2.cloudflarestorage.com", accountId)
}

func NewS3(cfg config.S3Config, pageSize int) (Datastore, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountId == "" {
			return nil, errors.New("s3: an endpoint or account id is required")
		}
		endpoint = R2Endpoint(cfg.AccountId)
	}
	if cfg.BucketName == "" {
		return nil, errors.New("s3: a bucket name is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Region: cfg.Region,
		Secure: cfg.Ssl,
		Creds:  credentials.NewStaticV4(cfg.AccessKeyId, cfg.AccessSecret, ""),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "s3: error creating client")
	}

	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}

	return &s3{
		client:       client,
		core:         &minio.Core{Client: client},
		bucket:       cfg.BucketName,
		cacheControl: cfg.CacheControl,
		pageSize:     pageSize,
	}, nil
}

func (s *s3) Kind() string {
	return "s3"
}

func (s *s3) ListPage(ctx rcontext.RequestContext, prefix string, cursor string) (*Page, error) {
	metrics.S3Operations.With(prometheus.Labels{"operation": "ListObjectsV2"}).Inc()
	res, err := s.core.ListObjectsV2(s.bucket, prefix, "", cursor, "", s.pageSize)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "s3: error listing %s", s.bucket)
	}

	page := &Page{Objects: make([]ObjectInfo, 0, len(res.Contents))}
	for _, o := range res.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          o.Key,
			Size:         o.Size,
			ContentType:  o.ContentType,
			LastModified: o.LastModified,
		})
	}
	if res.IsTruncated {
		page.NextCursor = res.NextContinuationToken
	}
	return page, nil
}

func (s *s3) DeleteMany(ctx rcontext.RequestContext, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	metrics.S3Operations.With(prometheus.Labels{"operation": "RemoveObjects"}).Inc()
	var firstErr error
	failed := 0
	for rerr := range s.client.RemoveObjects(ctx.Context, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failed++
		if firstErr == nil {
			firstErr = pkgerrors.Wrapf(rerr.Err, "s3: error removing %s", rerr.ObjectName)
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%d of %d deletes failed: %w", failed, len(keys), firstErr)
	}
	return nil
}

func (s *s3) Put(ctx rcontext.RequestContext, key string, data []byte, contentType string) error {
	metrics.S3Operations.With(prometheus.Labels{"operation": "PutObject"}).Inc()
	_, err := s.client.PutObject(ctx.Context, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: s.cacheControl,
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "s3: error uploading %s", key)
	}
	return nil
}

func (s *s3) Get(ctx rcontext.RequestContext, key string) (io.ReadCloser, error) {
	metrics.S3Operations.With(prometheus.Labels{"operation": "GetObject"}).Inc()
	obj, err := s.client.GetObject(ctx.Context, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "s3: error downloading %s", key)
	}
	// GetObject is lazy: stat to surface missing objects now rather than on first read
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		var merr minio.ErrorResponse
		if errors.As(err, &merr) && (merr.Code == "NoSuchKey" || merr.StatusCode == http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, pkgerrors.Wrapf(err, "s3: error downloading %s", key)
	}
	return obj, nil
}
