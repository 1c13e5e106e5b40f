package gallery

import (
	"encoding/base64"
	"image"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"
	"github.com/echoghi/v5/common/config"
	"github.com/echoghi/v5/renditions"
)

// Placeholder builds the tiny blurred image shown while a photo loads, as a
// data URL, along with a blurhash of the same image.
func Placeholder(img image.Image, cfg config.GalleryConfig) (string, string, error) {
	small := shrink(img, cfg)
	blurred := imaging.Blur(small, cfg.BlurSigma)

	b, err := renditions.EncodeWebp(blurred, cfg.PlaceholderQuality)
	if err != nil {
		return "", "", err
	}
	dataUrl := "data:image/webp;base64," + base64.StdEncoding.EncodeToString(b)

	hash, err := blurhash.Encode(cfg.BlurhashX, cfg.BlurhashY, small)
	if err != nil {
		return "", "", err
	}
	return dataUrl, hash, nil
}

// shrink fits the image inside a BlurSize square.
func shrink(img image.Image, cfg config.GalleryConfig) image.Image {
	return imaging.Fit(img, cfg.BlurSize, cfg.BlurSize, imaging.Lanczos)
}
