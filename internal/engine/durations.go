package engine

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ivlev/reel/internal/config"
	"github.com/ivlev/reel/internal/source"
)

// PageDurations splits total seconds of video over pages that overlap by
// fade seconds. Each page differs from the previous one by at most 15%, is
// never shorter than 1.1*fade, and the durations sum to
// total + (pages-1)*fade.
func PageDurations(total, fade float64, pages int, r *rand.Rand) []float64 {
	if pages <= 0 {
		return nil
	}
	numFades := float64(pages - 1)

	// Each crossfade overlaps two pages by fade.
	totalClipsDuration := total + numFades*fade
	base := totalClipsDuration / float64(pages)

	durations := make([]float64, pages)
	durations[0] = base * (1 + r.Float64()*0.3 - 0.15)
	for i := 1; i < pages; i++ {
		durations[i] = durations[i-1] * (1 + r.Float64()*0.3 - 0.15)
		if durations[i] < fade*1.1 {
			durations[i] = fade * 1.1
		}
	}

	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	scale := totalClipsDuration / sum
	for i := range durations {
		durations[i] *= scale
	}
	return durations
}

// AutoScene lays out every page of src as an image layer with a detected
// camera tour, crossfading into the next page over fade seconds.
func AutoScene(cfg *config.Config, src source.Source, total, fade float64, r *rand.Rand) (*config.Scene, error) {
	pages := src.Len()
	if pages == 0 {
		return nil, fmt.Errorf("source has no pages")
	}

	width, height := cfg.Width, cfg.Height
	srcW, srcH, err := src.Size(0)
	if err == nil && width == 1280 && height == 720 {
		width = int(float64(height) * (srcW / srcH))
		if width%2 != 0 {
			width++
		}
	}

	durations := PageDurations(total, fade, pages, r)
	if minDur := minOf(durations); pages > 1 && fade >= minDur {
		fade = minDur / 2
		fmt.Printf("[!] Transition shortened to %.2fs for a short page\n", fade)
		durations = PageDurations(total, fade, pages, r)
	}

	scene := &config.Scene{
		Version:    "1",
		Width:      width,
		Height:     height,
		FrameRate:  float64(cfg.FPS),
		Background: config.Const("#000000"),
		Audio:      config.Audio{Path: cfg.AudioPath},
	}

	start := 0.0
	for i, d := range durations {
		l := config.Layer{
			Type:     config.LayerImage,
			Start:    start,
			Duration: d,
			Source:   cfg.InputPath,
			Page:     i + 1,
			Camera:   config.Camera{Auto: true},
		}
		if w, h, err := src.Size(i); err == nil {
			box := fit(w, h, width, height)
			l.X, l.Y = config.Const(box.Min.X), config.Const(box.Min.Y)
			l.Width, l.Height = config.Const(box.Dx()), config.Const(box.Dy())
		}
		if i > 0 && fade > 0 {
			l.Opacity = config.Track{Keys: []config.Key{
				{Time: 0, Value: 0.0},
				{Time: fade, Value: 1.0, Ease: "ease-in-out-sine"},
			}}
		}
		scene.Layers = append(scene.Layers, l)
		start += d - fade
	}
	return scene, nil
}

// fit centres a w x h page inside the frame, keeping its aspect ratio.
func fit(w, h float64, width, height int) image.Rectangle {
	scale := math.Min(float64(width)/w, float64(height)/h)
	dw := int(math.Round(w * scale))
	dh := int(math.Round(h * scale))
	x := (width - dw) / 2
	y := (height - dh) / 2
	return image.Rect(x, y, x+dw, y+dh)
}

func minOf(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		m = math.Min(m, v)
	}
	return m
}
