// Package layer contains the time-bounded renderable units a movie
// composites: a timing-only Base, the Visual box and its Image and QR
// variants.
package layer

import (
	"errors"
	"fmt"
	"image"

	"github.com/ivlev/reel/internal/property"
)

var ErrInvalidTiming = errors.New("layer: invalid timing")

// Frame is the resolution scope of one tick: the owner's property cache and
// the movie time being rendered.
type Frame struct {
	Cache *property.Cache
	Time  float64
}

// Layer is a time-bounded unit of a movie.
type Layer interface {
	property.Element

	StartTime() float64
	Duration() float64

	// Active is cached lifecycle state owned by the movie.
	Active() bool
	SetActive(active bool)

	Attach(b property.Binding)
	Detach()

	// Start and Stop are called when the movie time enters or leaves the
	// layer's window, and Stop again when playback pauses.
	Start()
	Stop()

	Render(f Frame) error
}

// Drawable is a layer with visual output. After Render, Output reports the
// sr region of img to draw into dr of the movie surface.
type Drawable interface {
	Layer
	Output() (img image.Image, sr, dr image.Rectangle, opacity float64, ok bool)
}

// Loader is implemented by layers whose media loads asynchronously.
type Loader interface {
	Ready() bool
}

// InWindow reports whether t falls inside [start, start+duration).
func InWindow(l Layer, t float64) bool {
	return t >= l.StartTime() && t < l.StartTime()+l.Duration()
}

// Validate checks the layer's time window.
func Validate(l Layer) error {
	if l.StartTime() < 0 {
		return fmt.Errorf("%w: start time %g is negative", ErrInvalidTiming, l.StartTime())
	}
	if l.Duration() <= 0 {
		return fmt.Errorf("%w: duration %g is not positive", ErrInvalidTiming, l.Duration())
	}
	return nil
}

// Base is a layer with timing and properties but no output.
type Base struct {
	property.Node

	startTime float64
	duration  float64
	active    bool
}

func NewBase(startTime, duration float64) *Base {
	return &Base{
		Node:      property.NewNode(nil),
		startTime: startTime,
		duration:  duration,
	}
}

func (b *Base) StartTime() float64 { return b.startTime }
func (b *Base) Duration() float64  { return b.duration }

// SetTiming moves the layer's window.
func (b *Base) SetTiming(startTime, duration float64) {
	b.Update(func() {
		b.startTime = startTime
		b.duration = duration
	})
}

func (b *Base) Active() bool          { return b.active }
func (b *Base) SetActive(active bool) { b.active = active }

func (b *Base) Attach(binding property.Binding) {
	b.Bind(binding)
}

func (b *Base) Detach() {
	b.Unbind()
	b.active = false
}

func (b *Base) Start()               {}
func (b *Base) Stop()                {}
func (b *Base) Render(_ Frame) error { return nil }

// LocalTime converts movie time into the layer's own time.
func (b *Base) LocalTime(t float64) float64 {
	return t - b.startTime
}
