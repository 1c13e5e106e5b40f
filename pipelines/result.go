package pipelines

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

type ImageResult struct {
	Album        string
	Source       string
	Id           string
	DisplayKey   string
	PreviewKey   string
	DisplayBytes int
	PreviewBytes int
	Status       Status
	Reason       string
}

type SkippedAlbum struct {
	Album  string
	Reason string
}

type Summary struct {
	Cleared       *ClearStats
	Images        []*ImageResult
	SkippedAlbums []SkippedAlbum
	Started       time.Time
	Finished      time.Time
}

func newSummary() *Summary {
	return &Summary{
		Images:        make([]*ImageResult, 0),
		SkippedAlbums: make([]SkippedAlbum, 0),
		Started:       time.Now(),
	}
}

func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Images {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (s *Summary) HasFailures() bool {
	return s.Count(StatusFailed) > 0
}

func (s *Summary) UploadedBytes() uint64 {
	var n uint64
	for _, r := range s.Images {
		if r.Status == StatusSucceeded {
			n += uint64(r.DisplayBytes + r.PreviewBytes)
		}
	}
	return n
}

func (s *Summary) Log(ctx rcontext.RequestContext) {
	for _, a := range s.SkippedAlbums {
		ctx.Log.WithField("album", a.Album).Warn("Skipped album: ", a.Reason)
	}
	for _, r := range s.Images {
		if r.Status == StatusFailed {
			ctx.Log.WithFields(logrus.Fields{
				"album":  r.Album,
				"source": r.Source,
			}).Error("Failed: ", r.Reason)
		}
	}

	fields := logrus.Fields{
		"succeeded":     s.Count(StatusSucceeded),
		"skipped":       s.Count(StatusSkipped),
		"failed":        s.Count(StatusFailed),
		"skippedAlbums": len(s.SkippedAlbums),
		"uploaded":      humanize.Bytes(s.UploadedBytes()),
		"took":          s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
	}
	if s.Cleared != nil {
		fields["cleared"] = s.Cleared.Deleted
	}
	ctx.Log.WithFields(fields).Info("Sync finished")
}
