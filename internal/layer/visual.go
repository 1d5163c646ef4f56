package layer

import (
	"image"
	"math"

	"github.com/ivlev/reel/internal/property"
	"github.com/ivlev/reel/internal/surface"
	"github.com/ivlev/reel/internal/system"
)

// Box is the initial placement of a visual layer on the movie surface.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// Visual is a rectangular layer with animated placement, opacity and
// background. Embedders draw their content into Canvas after Render.
//
// Properties: x, y, width, height, opacity (0..1), background (color or nil).
type Visual struct {
	*Base

	canvas  *image.RGBA
	dst     image.Rectangle
	opacity float64
}

func NewVisual(startTime, duration float64, box Box) *Visual {
	v := &Visual{Base: NewBase(startTime, duration)}
	props := v.Properties()
	props["x"] = property.Literal{V: box.X}
	props["y"] = property.Literal{V: box.Y}
	props["width"] = property.Literal{V: box.Width}
	props["height"] = property.Literal{V: box.Height}
	props["opacity"] = property.Literal{V: 1.0}
	props["background"] = property.Literal{V: nil}
	v.SetFilter("opacity", clampUnit)
	return v
}

func (v *Visual) Render(f Frame) error {
	t := v.LocalTime(f.Time)

	var box [4]float64
	for i, name := range []string{"x", "y", "width", "height"} {
		val, err := property.Float(f.Cache, v, name, t)
		if err != nil {
			return err
		}
		box[i] = val
	}
	opacity, err := property.Float(f.Cache, v, "opacity", t)
	if err != nil {
		return err
	}
	background, err := property.Color(f.Cache, v, "background", t)
	if err != nil {
		return err
	}

	v.dst = image.Rect(
		round(box[0]), round(box[1]),
		round(box[0]+box[2]), round(box[1]+box[3]),
	)
	v.opacity = opacity

	size := image.Rect(0, 0, v.dst.Dx(), v.dst.Dy())
	if v.canvas == nil || v.canvas.Rect != size {
		v.release()
		if size.Empty() {
			return nil
		}
		v.canvas = system.GetImage(size)
	}

	c := surface.FromRGBA(v.canvas)
	c.Clear()
	c.Fill(background)
	return nil
}

// Canvas is the layer's own pixel buffer, nil until rendered.
func (v *Visual) Canvas() *image.RGBA {
	return v.canvas
}

func (v *Visual) Output() (image.Image, image.Rectangle, image.Rectangle, float64, bool) {
	if v.canvas == nil || v.dst.Empty() {
		return nil, image.Rectangle{}, image.Rectangle{}, 0, false
	}
	return v.canvas, v.canvas.Rect, v.dst, v.opacity, true
}

func (v *Visual) Stop() {
	v.release()
}

func (v *Visual) release() {
	if v.canvas != nil {
		system.PutImage(v.canvas)
		v.canvas = nil
	}
}

func clampUnit(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	return math.Max(0, math.Min(1, f))
}

func round(f float64) int {
	return int(math.Round(f))
}
