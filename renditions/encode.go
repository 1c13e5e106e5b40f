package renditions

import (
	"bytes"
	"image"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// EncodeWebp encodes an in-memory image as lossy WebP.
func EncodeWebp(img image.Image, quality int) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, err
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	ep := vips.NewWebpExportParams()
	ep.StripMetadata = true
	ep.Quality = quality
	b, _, err := ref.ExportWebp(ep)
	return b, err
}
