package layer

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/ivlev/reel/internal/property"
	"github.com/ivlev/reel/internal/surface"
)

// Camera selects the visible part of an image: a viewport centred on
// (X, Y) in image pixels, magnified by Zoom. The zero Camera shows the
// whole image.
type Camera struct {
	X, Y float64
	Zoom float64
}

// Region returns the rectangle of b the camera sees, kept inside b.
func (c Camera) Region(b image.Rectangle) image.Rectangle {
	zoom := math.Max(c.Zoom, 1)
	w := float64(b.Dx()) / zoom
	h := float64(b.Dy()) / zoom

	cx, cy := c.X, c.Y
	if cx == 0 && cy == 0 {
		cx = float64(b.Min.X) + float64(b.Dx())/2
		cy = float64(b.Min.Y) + float64(b.Dy())/2
	}

	x0 := clamp(cx-w/2, float64(b.Min.X), float64(b.Max.X)-w)
	y0 := clamp(cy-h/2, float64(b.Min.Y), float64(b.Max.Y)-h)
	return image.Rect(round(x0), round(y0), round(x0+w), round(y0+h)).Intersect(b)
}

// LoadFunc produces the pixels of an image layer.
type LoadFunc func() (image.Image, error)

// Image is a visual layer showing a still image through an animated
// camera. Its pixels load in the background on first Start or Ready call.
//
// Properties: those of Visual plus camera (Camera).
type Image struct {
	*Visual

	load LoadFunc

	mu      sync.Mutex
	src     image.Image
	loadErr error
	loading bool
}

// NewImage creates a layer over an already decoded image.
func NewImage(startTime, duration float64, box Box, src image.Image) *Image {
	l := newImage(startTime, duration, box, nil)
	l.src = src
	return l
}

// NewImageLoader creates a layer that loads its image lazily.
func NewImageLoader(startTime, duration float64, box Box, load LoadFunc) *Image {
	return newImage(startTime, duration, box, load)
}

func newImage(startTime, duration float64, box Box, load LoadFunc) *Image {
	l := &Image{Visual: NewVisual(startTime, duration, box), load: load}
	l.Properties()["camera"] = property.Literal{V: Camera{}}
	return l
}

func (l *Image) Start() {
	l.Visual.Start()
	l.Load()
}

// Load starts loading the image if it is neither loaded nor loading.
func (l *Image) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.src != nil || l.loadErr != nil || l.loading || l.load == nil {
		return
	}
	l.loading = true
	go func() {
		img, err := l.load()
		l.mu.Lock()
		l.src, l.loadErr, l.loading = img, err, false
		l.mu.Unlock()
	}()
}

// Ready reports whether loading has finished, successfully or not. A failed
// load surfaces as an error from the next Render.
func (l *Image) Ready() bool {
	l.Load()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src != nil || l.loadErr != nil
}

func (l *Image) Render(f Frame) error {
	if err := l.Visual.Render(f); err != nil {
		return err
	}

	l.mu.Lock()
	src, loadErr := l.src, l.loadErr
	l.mu.Unlock()
	if loadErr != nil {
		return fmt.Errorf("image layer: %w", loadErr)
	}
	canvas := l.Canvas()
	if src == nil || canvas == nil {
		return nil
	}

	v, err := property.Resolve(f.Cache, l, "camera", l.LocalTime(f.Time))
	if err != nil {
		return err
	}
	cam, ok := v.(Camera)
	if !ok && v != nil {
		return fmt.Errorf("%w: camera is %T", property.ErrWrongType, v)
	}

	surface.Blit(canvas, src, cam.Region(src.Bounds()), canvas.Bounds(), 1)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
