package albums

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/echoghi/v5/common/config"
)

var ErrNoSourceDir = errors.New("album has no source directory")

type Album struct {
	Name      string
	SourceDir string
}

type SourceImage struct {
	Album string
	Name  string
	Path  string
	// Ext is the lowercased extension including the dot, eg ".jpg"
	Ext string
}

// ListAlbums returns the names of the immediate subdirectories of albumsPath.
func ListAlbums(albumsPath string) ([]string, error) {
	entries, err := os.ReadDir(albumsPath)
	if err != nil {
		return nil, fmt.Errorf("error listing albums in %s: %w", albumsPath, err)
	}

	names := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func SourceDir(cfg config.SourcesConfig, album string) string {
	return filepath.Join(cfg.SourcesPath, album+cfg.SourceSuffix)
}

// Resolve locates the source directory for an album, returning ErrNoSourceDir
// when the photos for it have not been supplied.
func Resolve(cfg config.SourcesConfig, album string) (*Album, error) {
	dir := SourceDir(cfg, album)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoSourceDir, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoSourceDir, dir)
	}
	return &Album{Name: album, SourceDir: dir}, nil
}

// ListSourceImages returns the eligible raster files directly inside the album's
// source directory, in directory order.
func ListSourceImages(album *Album, cfg config.SourcesConfig) ([]*SourceImage, error) {
	entries, err := os.ReadDir(album.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", album.SourceDir, err)
	}

	images := make([]*SourceImage, 0)
	for _, e := range entries {
		name := e.Name()
		if !isRegularFile(album.SourceDir, e) {
			continue
		}
		if isIgnored(name, cfg.IgnoredFiles) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !IsAllowedExtension(ext, cfg.Extensions) {
			continue
		}
		images = append(images, &SourceImage{
			Album: album.Name,
			Name:  name,
			Path:  filepath.Join(album.SourceDir, name),
			Ext:   ext,
		})
	}
	return images, nil
}

// isRegularFile accepts regular files and symlinks that resolve to one. Dangling
// links are skipped.
func isRegularFile(dir string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.Mode().IsRegular()
}

func IsAllowedExtension(ext string, allowed []string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}

func isIgnored(name string, ignored []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, i := range ignored {
		if name == i {
			return true
		}
	}
	return false
}
