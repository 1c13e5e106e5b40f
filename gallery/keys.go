package gallery

import (
	"path"
	"strings"

	"github.com/echoghi/v5/renditions"
)

var previewExtensions = []string{".jpg", ".jpeg", ".png"}

// DisplayKeyForPreview maps a preview key onto its display sibling. Only the
// file name is rewritten; the album segment is kept as is.
func DisplayKeyForPreview(key string) string {
	dir, name := path.Split(key)
	name = strings.Replace(name, renditions.PreviewSuffix, "", 1)
	ext := path.Ext(name)
	for _, e := range previewExtensions {
		if strings.EqualFold(ext, e) {
			return dir + strings.TrimSuffix(name, ext) + renditions.DisplayExtension
		}
	}
	return dir + name
}

func IsPreviewKey(key string) bool {
	return strings.Contains(path.Base(key), renditions.PreviewSuffix)
}

func IsDisplayKey(key string) bool {
	return !IsPreviewKey(key) && strings.HasSuffix(key, renditions.DisplayExtension)
}

// AlbumOf returns the first path segment of a key, or "" for top-level keys.
func AlbumOf(key string) string {
	if i := strings.Index(key, "/"); i > 0 {
		return key[:i]
	}
	return ""
}
