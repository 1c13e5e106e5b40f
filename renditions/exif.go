package renditions

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dsoprea/go-exif/v3"
)

// ReadExifOrientation returns the EXIF orientation value (1-8) of the image, or
// 1 when the image carries no usable orientation.
func ReadExifOrientation(b []byte) (int, error) {
	rawExif, err := exif.SearchAndExtractExifWithReader(bytes.NewReader(b))
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return 1, nil
		}
		return 1, errors.New("exif: error reading possible exif data: " + err.Error())
	}

	tags, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 1, errors.New("exif: error parsing exif data: " + err.Error())
	}

	var tag exif.ExifTag
	for _, t := range tags {
		if t.TagName == "Orientation" {
			tag = t
			break
		}
	}
	if tag.TagName != "Orientation" {
		return 1, nil
	}

	var orientation uint16 = 0
	vals, ok := tag.Value.([]uint16)
	if !ok || len(vals) <= 0 {
		orientation, ok = tag.Value.(uint16)
		if !ok {
			return 1, errors.New("exif: error parsing orientation: parse error (not an int)")
		}
	} else {
		orientation = vals[0]
	}

	// Some devices produce invalid exif data when they intend to mean "no orientation"
	if orientation == 0 {
		return 1, nil
	}
	if orientation > 8 {
		return 1, fmt.Errorf("orientation out of range: %d", orientation)
	}
	return int(orientation), nil
}

// SwapsAxes reports whether an orientation value rotates the image by 90 or 270
// degrees, making the displayed width the stored height.
func SwapsAxes(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

// applyOrientation turns a stored image upright for the given EXIF value.
func applyOrientation(img *vips.ImageRef, orientation int) error {
	angle := vips.Angle0
	flip := false
	direction := vips.DirectionHorizontal
	switch orientation {
	case 2:
		flip = true
	case 3:
		angle = vips.Angle180
	case 4:
		flip, direction = true, vips.DirectionVertical
	case 5:
		angle, flip = vips.Angle90, true
	case 6:
		angle = vips.Angle90
	case 7:
		angle, flip, direction = vips.Angle90, true, vips.DirectionVertical
	case 8:
		angle = vips.Angle270
	}

	if angle != vips.Angle0 {
		if err := img.Rotate(angle); err != nil {
			return err
		}
	}
	if flip {
		return img.Flip(direction)
	}
	return nil
}
