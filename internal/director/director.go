// Package director plans camera tours over a page: it orders the page's
// regions of interest, gives each a dwell time and turns the tour into an
// animated camera for an image layer.
package director

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ivlev/reel/internal/keyframe"
	"github.com/ivlev/reel/internal/layer"
)

var (
	ErrNoRegions = errors.New("director: no regions to visit")
	ErrDuration  = errors.New("director: duration must be positive")
)

// Shot is a camera position at a time offset within the layer.
type Shot struct {
	Time   float64      `yaml:"time"`
	Focus  string       `yaml:"focus"`
	Camera layer.Camera `yaml:",inline"`
}

// Director generates camera tours.
type Director struct {
	MinDwell float64 // minimum time per region (seconds)
	MaxDwell float64 // maximum time per region (seconds)
	Intro    float64 // full view before the first region
	Outro    float64 // full view after the last region
	MaxZoom  float64
	// Padding is the share of the view a focused region fills.
	Padding float64
	// Travel is the share of each dwell spent moving to the next region.
	Travel float64
	Ease   keyframe.Interpolator

	Detector *Detector
}

func NewDirector() *Director {
	return &Director{
		MinDwell: 1.0,
		MaxDwell: 3.0,
		Intro:    1.0,
		Outro:    1.0,
		MaxZoom:  3.0,
		Padding:  0.9,
		Travel:   0.4,
		Ease:     keyframe.EaseInOutCubic,
		Detector: NewDetector(),
	}
}

// Plan visits regions of page in reading order within duration. The tour
// starts and ends on the full page; when it would overrun, it is compressed
// to end Outro seconds before duration.
func (d *Director) Plan(page image.Rectangle, regions []image.Rectangle, duration float64) ([]Shot, error) {
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %g", ErrDuration, duration)
	}

	sorted := sortRegions(regions)
	dwell := d.dwellTime(duration, len(sorted))
	full := FullView(page)

	shots := []Shot{{Time: 0, Focus: "full_view", Camera: full}}
	t := d.Intro
	for i, r := range sorted {
		cam := d.focus(page, r)
		label := fmt.Sprintf("region_%d", i+1)
		shots = append(shots, Shot{Time: t, Focus: label, Camera: cam})
		if hold := dwell * (1 - d.Travel); hold > 0 {
			shots = append(shots, Shot{Time: t + hold, Focus: label, Camera: cam})
		}
		t += dwell
	}
	shots = append(shots, Shot{Time: t, Focus: "full_view", Camera: full})

	end := duration - d.Outro
	if end <= 0 {
		end = duration
	}
	if t > end {
		scale := end / t
		for i := range shots {
			shots[i].Time *= scale
		}
	}
	if last := shots[len(shots)-1].Time; last < duration {
		shots = append(shots, Shot{Time: duration, Focus: "full_view", Camera: full})
	}
	return shots, nil
}

// CameraPath turns shots into an animated camera value.
func (d *Director) CameraPath(shots []Shot) *keyframe.Value {
	samples := make([]keyframe.Sample, len(shots))
	for i, s := range shots {
		samples[i] = keyframe.At(s.Time, s.Camera, d.Ease)
	}
	return keyframe.New(samples...)
}

// Tour detects the regions of page and plans a camera path over them.
// Pages without detectable regions get a still full view.
func (d *Director) Tour(page image.Image, duration float64) (*keyframe.Value, []Shot, error) {
	regions := d.Detector.Detect(page)
	if len(regions) == 0 {
		shots := []Shot{{Time: 0, Focus: "full_view", Camera: FullView(page.Bounds())}}
		return d.CameraPath(shots), shots, nil
	}
	shots, err := d.Plan(page.Bounds(), regions, duration)
	if err != nil {
		return nil, nil, err
	}
	return d.CameraPath(shots), shots, nil
}

// FullView is the camera showing the whole page.
func FullView(page image.Rectangle) layer.Camera {
	return layer.Camera{
		X:    float64(page.Min.X) + float64(page.Dx())/2,
		Y:    float64(page.Min.Y) + float64(page.Dy())/2,
		Zoom: 1,
	}
}

// sortRegions orders regions top-to-bottom, then left-to-right within a row.
func sortRegions(regions []image.Rectangle) []image.Rectangle {
	sorted := append([]image.Rectangle(nil), regions...)

	sort.SliceStable(sorted, func(i, j int) bool {
		// Tops closer than this share a row.
		const threshold = 20

		yDiff := sorted[i].Min.Y - sorted[j].Min.Y
		if abs(yDiff) > threshold {
			return sorted[i].Min.Y < sorted[j].Min.Y
		}
		return sorted[i].Min.X < sorted[j].Min.X
	})
	return sorted
}

func (d *Director) dwellTime(duration float64, count int) float64 {
	available := duration - d.Intro - d.Outro
	if available <= 0 {
		available = duration
	}
	dwell := available / float64(count)
	return math.Max(d.MinDwell, math.Min(d.MaxDwell, dwell))
}

// focus centres the camera on r, zoomed so r fills Padding of the view.
func (d *Director) focus(page, r image.Rectangle) layer.Camera {
	cam := FullView(r)
	if r.Dx() == 0 || r.Dy() == 0 {
		return cam
	}

	scaleX := float64(page.Dx()) * d.Padding / float64(r.Dx())
	scaleY := float64(page.Dy()) * d.Padding / float64(r.Dy())
	cam.Zoom = math.Max(1, math.Min(d.MaxZoom, math.Min(scaleX, scaleY)))
	return cam
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
