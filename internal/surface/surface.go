// Package surface provides the output surfaces a movie composites onto.
package surface

import (
	"image"
	"image/color"

	"github.com/ivlev/reel/internal/system"
	"golang.org/x/image/draw"
)

// Surface is a drawable, substitutable output target.
type Surface interface {
	Bounds() image.Rectangle
	Clear()
	Fill(c color.Color)
	// DrawImage draws the sr region of src scaled into dr.
	DrawImage(src image.Image, sr, dr image.Rectangle, opacity float64)
	// RGBA exposes the pixels for whole-frame effects and encoders.
	RGBA() *image.RGBA
}

// Canvas is a CPU surface backed by an *image.RGBA.
type Canvas struct {
	img    *image.RGBA
	pooled bool
}

// NewCanvas allocates a width x height canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// NewPooledCanvas takes its buffer from the shared image pool. Call Release
// when done with it.
func NewPooledCanvas(r image.Rectangle) *Canvas {
	c := &Canvas{img: system.GetImage(r), pooled: true}
	c.Clear()
	return c
}

// FromRGBA wraps an existing buffer.
func FromRGBA(img *image.RGBA) *Canvas {
	return &Canvas{img: img}
}

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }
func (c *Canvas) RGBA() *image.RGBA       { return c.img }

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (c *Canvas) Fill(col color.Color) {
	if col == nil {
		return
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Over)
}

func (c *Canvas) DrawImage(src image.Image, sr, dr image.Rectangle, opacity float64) {
	Blit(c.img, src, sr, dr, opacity)
}

// Release hands a pooled buffer back. The canvas must not be used after.
func (c *Canvas) Release() {
	if c.pooled {
		system.PutImage(c.img)
		c.img = nil
	}
}

// Blit composites the sr region of src into dr of dst, scaling with
// bilinear filtering when the sizes differ.
func Blit(dst *image.RGBA, src image.Image, sr, dr image.Rectangle, opacity float64) {
	if opacity <= 0 || sr.Empty() || dr.Empty() {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	var mask image.Image
	if opacity < 1 {
		mask = image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	}

	if sr.Size() == dr.Size() {
		draw.DrawMask(dst, dr, src, sr.Min, mask, image.Point{}, draw.Over)
		return
	}
	if mask == nil {
		draw.ApproxBiLinear.Scale(dst, dr, src, sr, draw.Over, nil)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, sr, draw.Src, nil)
	draw.DrawMask(dst, dr, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}
