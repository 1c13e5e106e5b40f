package renditions

import (
	"math"
)

// FitWithin scales (srcWidth, srcHeight) down so that it fits inside the given
// bounds, preserving aspect ratio. A bound of zero or less is unbounded. The
// result never exceeds the source dimensions.
func FitWithin(srcWidth int, srcHeight int, maxWidth int, maxHeight int) (int, int) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return srcWidth, srcHeight
	}

	scale := 1.0
	if maxWidth > 0 && srcWidth > maxWidth {
		scale = math.Min(scale, float64(maxWidth)/float64(srcWidth))
	}
	if maxHeight > 0 && srcHeight > maxHeight {
		scale = math.Min(scale, float64(maxHeight)/float64(srcHeight))
	}
	if scale >= 1 {
		return srcWidth, srcHeight
	}

	w := int(math.Round(float64(srcWidth) * scale))
	h := int(math.Round(float64(srcHeight) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
