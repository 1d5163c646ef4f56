package stream

import (
	"encoding/binary"
	"errors"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrFrameTooLarge = errors.New("stream: frame has more than 65535 pixels")

// Frame is a row-major grid of pixel colors sent to an LED device.
type Frame []colorful.Color

// Sample downsamples img to cols x rows by averaging each cell. Colors are
// un-premultiplied.
func Sample(img *image.RGBA, cols, rows int) Frame {
	b := img.Rect
	f := make(Frame, 0, cols*rows)
	for row := 0; row < rows; row++ {
		y0 := b.Min.Y + row*b.Dy()/rows
		y1 := b.Min.Y + (row+1)*b.Dy()/rows
		for col := 0; col < cols; col++ {
			x0 := b.Min.X + col*b.Dx()/cols
			x1 := b.Min.X + (col+1)*b.Dx()/cols
			f = append(f, average(img, image.Rect(x0, y0, max(x1, x0+1), max(y1, y0+1))))
		}
	}
	return f
}

func average(img *image.RGBA, r image.Rectangle) colorful.Color {
	r = r.Intersect(img.Rect)
	var sr, sg, sb, sa float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := img.PixOffset(x, y)
			sr += float64(img.Pix[i])
			sg += float64(img.Pix[i+1])
			sb += float64(img.Pix[i+2])
			sa += float64(img.Pix[i+3])
		}
	}
	if sa == 0 {
		return colorful.Color{}
	}
	return colorful.Color{R: sr / sa, G: sg / sa, B: sb / sa}
}

// MarshalBinary encodes the frame as a little-endian uint16 pixel count
// followed by one RGB triplet per pixel.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f) > 0xffff {
		return nil, ErrFrameTooLarge
	}
	data := make([]byte, 2, len(f)*3+2)
	binary.LittleEndian.PutUint16(data, uint16(len(f)))
	for _, p := range f {
		r, g, b := p.Clamped().RGB255()
		data = append(data, r, g, b)
	}
	return data, nil
}

// Blend mixes two frames of equal size in HCL space.
func (f Frame) Blend(other Frame, t float64) Frame {
	out := make(Frame, len(f))
	for i := range f {
		if i < len(other) {
			out[i] = f[i].BlendHcl(other[i], t).Clamped()
		} else {
			out[i] = f[i]
		}
	}
	return out
}
