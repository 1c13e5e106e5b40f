package renditions

import (
	"errors"
	"fmt"
	"time"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/common/rcontext"
	"github.com/echoghi/v5/metrics"
	"github.com/h2non/filetype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var ErrUnsupportedSource = errors.New("unsupported source image type")
var ErrSourceTooLarge = errors.New("source image has too many pixels")

var supportedSourceTypes = []string{"image/jpeg", "image/png"}

type Output struct {
	Kind         Kind
	ContentType  string
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
	// Orientation is the EXIF value applied, or 0 when vips read it itself.
	Orientation int
}

// Deriver produces display and preview renditions of source images.
type Deriver struct {
	cfg config.RenditionsConfig
}

func NewDeriver(cfg config.RenditionsConfig) *Deriver {
	return &Deriver{cfg: cfg}
}

func (d *Deriver) Display(ctx rcontext.RequestContext, src []byte) (*Output, error) {
	return d.Render(ctx, KindDisplay, src)
}

func (d *Deriver) Preview(ctx rcontext.RequestContext, src []byte) (*Output, error) {
	return d.Render(ctx, KindPreview, src)
}

func (d *Deriver) Render(ctx rcontext.RequestContext, kind Kind, src []byte) (*Output, error) {
	start := time.Now()
	sourceType, err := SniffSourceType(src)
	if err != nil {
		return nil, err
	}

	// 0 means vips has to find the orientation itself
	orientation := 0
	if sourceType == "image/jpeg" {
		orientation, err = ReadExifOrientation(src)
		if err != nil {
			ctx.Log.Warn("Non-fatal error reading exif headers: ", err)
			orientation = 0
		}
	}

	params := vips.NewImportParams()
	params.FailOnError.Set(d.cfg.FailOnError)
	img, err := vips.LoadImageFromBuffer(src, params)
	if err != nil {
		return nil, fmt.Errorf("%s: error decoding source: %w", kind, err)
	}
	defer img.Close()

	if orientation == 0 {
		err = img.AutoRotate()
	} else {
		if orientation != 1 {
			ctx.Log.WithField("orientation", orientation).Debug("Applying exif orientation")
		}
		err = applyOrientation(img, orientation)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: error applying orientation: %w", kind, err)
	}

	srcWidth := img.Width()
	srcHeight := img.Height()
	if d.cfg.MaxPixels > 0 && srcWidth*srcHeight > d.cfg.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrSourceTooLarge, srcWidth, srcHeight)
	}

	var width, height int
	if kind == KindDisplay {
		width, height = FitWithin(srcWidth, srcHeight, 0, d.cfg.Display.MaxHeight)
	} else {
		width, height = FitWithin(srcWidth, srcHeight, d.cfg.Preview.MaxWidth, 0)
	}

	if width != srcWidth || height != srcHeight {
		hScale := float64(width) / float64(srcWidth)
		vScale := float64(height) / float64(srcHeight)
		if err = img.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("%s: error resizing: %w", kind, err)
		}
	}

	var data []byte
	if kind == KindDisplay {
		data, err = d.exportDisplay(img)
	} else {
		data, err = d.exportPreview(img)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: error encoding: %w", kind, err)
	}

	labels := prometheus.Labels{"kind": string(kind)}
	metrics.RenditionTime.With(labels).Observe(time.Since(start).Seconds())
	metrics.RenditionBytes.With(labels).Add(float64(len(data)))

	ctx.Log.WithFields(logrus.Fields{
		"kind":   kind,
		"source": fmt.Sprintf("%dx%d", srcWidth, srcHeight),
		"output": fmt.Sprintf("%dx%d", img.Width(), img.Height()),
	}).Debug("Rendered")

	return &Output{
		Kind:         kind,
		ContentType:  kind.ContentType(),
		Data:         data,
		Width:        img.Width(),
		Height:       img.Height(),
		SourceWidth:  srcWidth,
		SourceHeight: srcHeight,
		Orientation:  orientation,
	}, nil
}

func (d *Deriver) exportDisplay(img *vips.ImageRef) ([]byte, error) {
	ep := vips.NewWebpExportParams()
	ep.StripMetadata = true
	ep.Quality = d.cfg.Display.Quality
	ep.ReductionEffort = d.cfg.Display.ReductionEffort
	b, _, err := img.ExportWebp(ep)
	return b, err
}

func (d *Deriver) exportPreview(img *vips.ImageRef) ([]byte, error) {
	if img.HasAlpha() {
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, err
		}
	}

	ep := vips.NewJpegExportParams()
	ep.StripMetadata = true
	ep.Quality = d.cfg.Preview.Quality
	ep.Interlace = d.cfg.Preview.Progressive
	if d.cfg.Preview.Optimize {
		// the same switches mozjpeg defaults to
		ep.OptimizeCoding = true
		ep.TrellisQuant = true
		ep.OvershootDeringing = true
		ep.OptimizeScans = true
		ep.QuantTable = 3
	}
	b, _, err := img.ExportJpeg(ep)
	return b, err
}

// SniffSourceType detects the source format from its leading bytes.
func SniffSourceType(src []byte) (string, error) {
	kind, err := filetype.Match(src)
	if err != nil || kind == filetype.Unknown {
		return "", ErrUnsupportedSource
	}
	for _, t := range supportedSourceTypes {
		if kind.MIME.Value == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, kind.MIME.Value)
}
