package effects

import (
	"image"

	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/property"
	"github.com/lucasb-eyer/go-colorful"
)

// Brightness scales every color channel by factor (1 leaves the frame
// unchanged).
type Brightness struct {
	Base
}

func NewBrightness(factor any) *Brightness {
	return &Brightness{Base: newBase(property.Bag{"factor": factor})}
}

func (e *Brightness) Apply(target *image.RGBA, f layer.Frame) error {
	factor, err := property.Float(f.Cache, e, "factor", f.Time)
	if err != nil {
		return err
	}
	if factor == 1 {
		return nil
	}
	eachPixel(target, func(px []uint8) {
		a := px[3]
		px[0] = channel(float64(px[0])*factor, a)
		px[1] = channel(float64(px[1])*factor, a)
		px[2] = channel(float64(px[2])*factor, a)
	})
	return nil
}

// Grayscale desaturates the frame towards its Rec. 601 luma by strength
// (0..1).
type Grayscale struct {
	Base
}

func NewGrayscale(strength any) *Grayscale {
	return &Grayscale{Base: newBase(property.Bag{"strength": strength})}
}

func (e *Grayscale) Apply(target *image.RGBA, f layer.Frame) error {
	s, err := property.Float(f.Cache, e, "strength", f.Time)
	if err != nil {
		return err
	}
	s = clampUnit(s)
	if s == 0 {
		return nil
	}
	eachPixel(target, func(px []uint8) {
		r, g, b := float64(px[0]), float64(px[1]), float64(px[2])
		y := 0.299*r + 0.587*g + 0.114*b
		px[0] = channel(r+(y-r)*s, px[3])
		px[1] = channel(g+(y-g)*s, px[3])
		px[2] = channel(b+(y-b)*s, px[3])
	})
	return nil
}

// Tint blends every opaque part of the frame towards color by strength
// (0..1).
type Tint struct {
	Base
}

func NewTint(col, strength any) *Tint {
	return &Tint{Base: newBase(property.Bag{"color": col, "strength": strength})}
}

func (e *Tint) Apply(target *image.RGBA, f layer.Frame) error {
	s, err := property.Float(f.Cache, e, "strength", f.Time)
	if err != nil {
		return err
	}
	c, err := property.Color(f.Cache, e, "color", f.Time)
	if err != nil {
		return err
	}
	s = clampUnit(s)
	if s == 0 || c == nil {
		return nil
	}
	tint, ok := colorful.MakeColor(c)
	if !ok {
		return nil
	}
	tr, tg, tb := tint.RGB255()

	eachPixel(target, func(px []uint8) {
		a := px[3]
		alpha := float64(a) / 255
		r, g, b := float64(px[0]), float64(px[1]), float64(px[2])
		px[0] = channel(r+(float64(tr)*alpha-r)*s, a)
		px[1] = channel(g+(float64(tg)*alpha-g)*s, a)
		px[2] = channel(b+(float64(tb)*alpha-b)*s, a)
	})
	return nil
}
