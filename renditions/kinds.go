package renditions

import (
	"strings"
)

type Kind string

const (
	KindDisplay Kind = "display"
	KindPreview Kind = "preview"
)

const (
	DisplayContentType = "image/webp"
	PreviewContentType = "image/jpeg"
	DisplayExtension   = ".webp"
	PreviewSuffix      = "-preview"
)

var AllKinds = []Kind{KindDisplay, KindPreview}

func (k Kind) ContentType() string {
	if k == KindDisplay {
		return DisplayContentType
	}
	return PreviewContentType
}

// DisplayKey is the object key of the display rendition, eg "italy/abc123.webp".
func DisplayKey(album string, id string) string {
	return album + "/" + id + DisplayExtension
}

// PreviewKey is the object key of the preview rendition. It keeps the source
// extension (lowercased) even though the bytes are always JPEG.
func PreviewKey(album string, id string, sourceExt string) string {
	ext := strings.ToLower(sourceExt)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return album + "/" + id + PreviewSuffix + ext
}

func KeyFor(kind Kind, album string, id string, sourceExt string) string {
	if kind == KindDisplay {
		return DisplayKey(album, id)
	}
	return PreviewKey(album, id, sourceExt)
}
