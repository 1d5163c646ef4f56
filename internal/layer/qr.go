package layer

import (
	"image"
	"image/color"

	"github.com/ivlev/reel/internal/property"
	"github.com/ivlev/reel/internal/surface"
	"github.com/skip2/go-qrcode"
)

// QR is a visual layer showing a QR code of its content property, centred
// and sized to the shorter side of the box. The code is regenerated only
// when content or size change.
//
// Properties: those of Visual plus content (string) and color.
type QR struct {
	*Visual

	level qrcode.RecoveryLevel

	content string
	size    int
	fg      color.Color
	code    image.Image
}

func NewQR(startTime, duration float64, box Box, content any) *QR {
	l := &QR{Visual: NewVisual(startTime, duration, box), level: qrcode.Medium}
	props := l.Properties()
	props["content"] = content
	props["color"] = property.Literal{V: color.Black}
	return l
}

func (l *QR) Render(f Frame) error {
	if err := l.Visual.Render(f); err != nil {
		return err
	}
	canvas := l.Canvas()
	if canvas == nil {
		return nil
	}

	t := l.LocalTime(f.Time)
	content, err := property.String(f.Cache, l, "content", t)
	if err != nil {
		return err
	}
	fg, err := property.Color(f.Cache, l, "color", t)
	if err != nil {
		return err
	}
	if fg == nil {
		fg = color.Black
	}

	size := min(canvas.Rect.Dx(), canvas.Rect.Dy())
	if l.code == nil || content != l.content || size != l.size || !sameColor(fg, l.fg) {
		q, err := qrcode.New(content, l.level)
		if err != nil {
			return err
		}
		q.ForegroundColor = fg
		q.BackgroundColor = color.White
		l.code = q.Image(size)
		l.content, l.size, l.fg = content, size, fg
	}

	b := l.code.Bounds()
	off := image.Pt((canvas.Rect.Dx()-b.Dx())/2, (canvas.Rect.Dy()-b.Dy())/2)
	surface.Blit(canvas, l.code, b, b.Sub(b.Min).Add(off), 1)
	return nil
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}
