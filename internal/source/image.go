package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageExtensions are the decodable image formats.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImage reports whether path has a decodable image extension.
func IsImage(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// Files serves image files as pages, one image per page.
type Files struct {
	paths []string
}

// OpenDir serves the images of dir sorted by name. Other files are skipped.
func OpenDir(dir string) (*Files, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() && IsImage(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, dir)
	}
	sort.Strings(paths)
	return &Files{paths: paths}, nil
}

func (s *Files) Len() int {
	return len(s.paths)
}

// Size reads only the image header.
func (s *Files) Size(page int) (float64, float64, error) {
	if err := checkPage(page, len(s.paths)); err != nil {
		return 0, 0, err
	}
	f, err := os.Open(s.paths[page])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", filepath.Base(s.paths[page]), err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *Files) Render(page, _ int) (image.Image, error) {
	if err := checkPage(page, len(s.paths)); err != nil {
		return nil, err
	}
	f, err := os.Open(s.paths[page])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(s.paths[page]), err)
	}
	return img, nil
}

func (s *Files) Close() error {
	return nil
}
