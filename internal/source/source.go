// Package source loads the still images shown by image layers: PDF pages
// rendered with MuPDF, or image files.
package source

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrPageRange   = errors.New("source: page out of range")
	ErrUnsupported = errors.New("source: unsupported input")
	ErrEmpty       = errors.New("source: no pages")
)

// Source is a paged collection of images.
type Source interface {
	Len() int
	// Size is the page size: points for PDF pages, pixels for images.
	Size(page int) (width, height float64, err error)
	// Render draws page at dpi. Sources without a resolution ignore dpi.
	Render(page, dpi int) (image.Image, error)
	Close() error
}

// Open picks a source for path: a PDF document, a single image, or a
// directory of images.
func Open(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	switch {
	case fi.IsDir():
		return OpenDir(path)
	case isPDF(path):
		return OpenPDF(path, 0)
	case IsImage(path):
		return &Files{paths: []string{path}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func checkPage(page, n int) error {
	if page < 0 || page >= n {
		return fmt.Errorf("%w: %d of %d", ErrPageRange, page+1, n)
	}
	return nil
}
