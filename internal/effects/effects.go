// Package effects contains whole-frame post-processing passes applied to the
// composited movie surface.
package effects

import (
	"image"
	"math"

	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/property"
)

// Effect transforms the composited frame in place. Effects read their
// parameters through the property resolver and keep no per-layer state.
type Effect interface {
	property.Element
	Attach(b property.Binding)
	Detach()
	Apply(target *image.RGBA, f layer.Frame) error
}

// Base carries the property node shared by all effects.
type Base struct {
	property.Node
}

func newBase(props property.Bag) Base {
	return Base{Node: property.NewNode(props)}
}

func (b *Base) Attach(binding property.Binding) {
	b.Bind(binding)
}

func (b *Base) Detach() {
	b.Unbind()
}

// eachPixel calls fn with the premultiplied RGBA bytes of every pixel.
func eachPixel(img *image.RGBA, fn func(px []uint8)) {
	b := img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			fn(row[i : i+4 : i+4])
		}
	}
}

// channel rounds v into [0, limit]. Premultiplied channels never exceed
// their alpha.
func channel(v float64, limit uint8) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= float64(limit) {
		return limit
	}
	return uint8(math.Round(v))
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
