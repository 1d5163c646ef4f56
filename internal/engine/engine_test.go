package engine

import (
	"context"
	"errors"
	"image"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/reel/internal/config"
	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/movie"
	"github.com/ivlev/reel/internal/surface"
	"github.com/ivlev/reel/internal/video"
)

func TestPageDurations(t *testing.T) {
	total, fade, pages := 100.0, 0.5, 10
	durations := PageDurations(total, fade, pages, rand.New(rand.NewSource(1)))
	if len(durations) != pages {
		t.Fatalf("Expected %d durations, got %d", pages, len(durations))
	}

	// sum(D_i) - (N-1)*F should equal the total
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	expectedSum := total + float64(pages-1)*fade
	if math.Abs(sum-expectedSum) > 0.0001 {
		t.Errorf("Expected sum %f, got %f", expectedSum, sum)
	}

	base := expectedSum / float64(pages)
	if v := durations[0]/base - 1; math.Abs(v) > 0.3 {
		t.Errorf("First clip variation too high: %f", v)
	}
	for i := 1; i < pages; i++ {
		if v := durations[i]/durations[i-1] - 1; math.Abs(v) > 0.1501 {
			t.Errorf("Clip %d variation too high: %f", i, v)
		}
	}

	if PageDurations(10, 1, 0, rand.New(rand.NewSource(1))) != nil {
		t.Error("no pages should give no durations")
	}
}

// pageSource serves blank pages of a fixed size.
type pageSource struct {
	pages int
	w, h  float64
}

func (s pageSource) Len() int { return s.pages }
func (s pageSource) Size(int) (float64, float64, error) {
	return s.w, s.h, nil
}
func (s pageSource) Render(int, int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, int(s.w), int(s.h))), nil
}
func (s pageSource) Close() error { return nil }

func TestAutoScene(t *testing.T) {
	cfg := &config.Config{InputPath: "deck.pdf", Width: 1280, Height: 720, FPS: 25}
	scene, err := AutoScene(cfg, pageSource{pages: 3, w: 400, h: 300}, 9, 0.5, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("AutoScene failed: %v", err)
	}
	if err := scene.Validate(); err != nil {
		t.Fatalf("generated scene is invalid: %v", err)
	}

	// 4:3 pages widen the default 16:9 frame to 960x720.
	if scene.Width != 960 || scene.Height != 720 {
		t.Errorf("size = %dx%d, want 960x720", scene.Width, scene.Height)
	}
	if math.Abs(scene.Duration()-9) > 1e-9 {
		t.Errorf("duration = %g, want 9", scene.Duration())
	}

	for i, l := range scene.Layers {
		if l.Page != i+1 || !l.Camera.Auto || l.Source != "deck.pdf" {
			t.Errorf("layer %d = %+v", i, l)
		}
		if i == 0 {
			if !l.Opacity.IsZero() {
				t.Error("first page fades in")
			}
			continue
		}
		prev := scene.Layers[i-1]
		if overlap := prev.Start + prev.Duration - l.Start; math.Abs(overlap-0.5) > 1e-9 {
			t.Errorf("layer %d overlaps the previous by %g, want 0.5", i, overlap)
		}
		if len(l.Opacity.Keys) != 2 || l.Opacity.Keys[1].Time != 0.5 {
			t.Errorf("layer %d opacity = %+v", i, l.Opacity)
		}
	}

	if _, err := AutoScene(cfg, pageSource{}, 9, 0.5, rand.New(rand.NewSource(7))); err == nil {
		t.Error("expected an error for an empty source")
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		want image.Rectangle
	}{
		{"same aspect", 1920, 1080, image.Rect(0, 0, 1280, 720)},
		{"portrait", 500, 1000, image.Rect(460, 0, 820, 720)},
		{"wide", 2000, 500, image.Rect(0, 200, 1280, 520)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fit(tt.w, tt.h, 1280, 720); got != tt.want {
				t.Errorf("fit = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakeEncoder struct {
	info   video.StreamInfo
	frames int
	last   *image.RGBA
}

func (e *fakeEncoder) Start(_ context.Context, info video.StreamInfo) error {
	e.info = info
	return nil
}

func (e *fakeEncoder) WriteFrame(frame *image.RGBA) error {
	e.frames++
	e.last = image.NewRGBA(frame.Rect)
	copy(e.last.Pix, frame.Pix)
	return nil
}

func (e *fakeEncoder) Finish() (video.Media, error) {
	return video.Media{Path: e.info.Output, Frames: e.frames}, nil
}

func (e *fakeEncoder) Abort() {}

func testScene() *config.Scene {
	return &config.Scene{
		Width:      8,
		Height:     4,
		FrameRate:  10,
		Background: config.Const("#000000"),
		Audio:      config.Audio{Path: "voice.mp3", Background: "music.mp3", Volume: 0.3},
		Layers: []config.Layer{
			{Type: config.LayerVisual, Duration: 1, Background: config.Const("#ff0000")},
			{Type: config.LayerImage, Source: "page.png", Start: 0.5, Duration: 0.5,
				X: config.Const(4), Width: config.Const(4),
				Camera: config.Camera{Auto: true}},
		},
		Effects: []config.Effect{
			{Type: config.EffectBrightness, Factor: config.Const(0.5)},
		},
	}
}

func whitePage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestBuild(t *testing.T) {
	p := NewProject(&config.Config{}, testScene(), nil)
	p.SetPages("page.png", []image.Image{whitePage()})

	m, err := p.Build(surface.NewCanvas(8, 4), movie.NewManualScheduler())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(m.Layers()) != 2 || len(m.Effects()) != 1 || m.Duration() != 1 {
		t.Errorf("movie has %d layers, %d effects, duration %g", len(m.Layers()), len(m.Effects()), m.Duration())
	}
	if _, ok := m.Layers()[1].(*layer.Image); !ok {
		t.Errorf("second layer is %T", m.Layers()[1])
	}

	bad := testScene()
	bad.Layers[1].Source = "missing.pdf"
	if _, err := NewProject(&config.Config{}, bad, nil).Build(surface.NewCanvas(8, 4), movie.NewManualScheduler()); err == nil {
		t.Error("expected an error for an unloaded source")
	}

	bad = testScene()
	bad.Layers[1].Page = 3
	p = NewProject(&config.Config{}, bad, nil)
	p.SetPages("page.png", []image.Image{whitePage()})
	if _, err := p.Build(surface.NewCanvas(8, 4), movie.NewManualScheduler()); err == nil {
		t.Error("expected an error for a missing page")
	}
}

func TestPlanCameras(t *testing.T) {
	p := NewProject(&config.Config{}, testScene(), nil)
	p.SetPages("page.png", []image.Image{whitePage()})

	if err := p.PlanCameras(); err != nil {
		t.Fatalf("PlanCameras failed: %v", err)
	}
	cam := p.Scene.Layers[1].Camera
	if cam.Auto || len(cam.Shots) == 0 {
		t.Errorf("camera = %+v, want planned shots", cam)
	}
}

func TestSyncToAudio(t *testing.T) {
	p := NewProject(&config.Config{}, testScene(), nil)
	p.SyncToAudio(3)
	if p.Scene.Duration() != 3 || p.Scene.Layers[1].Start != 1.5 {
		t.Errorf("duration %g, second layer start %g", p.Scene.Duration(), p.Scene.Layers[1].Start)
	}
}

func TestRun(t *testing.T) {
	enc := &fakeEncoder{}
	p := NewProject(&config.Config{OutputVideo: "out.mp4", AudioPath: "override.mp3"}, testScene(), enc)
	p.SetPages("page.png", []image.Image{whitePage()})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if enc.frames != 10 {
		t.Errorf("encoded %d frames, want 10", enc.frames)
	}
	if enc.info.AudioPath != "override.mp3" || enc.info.BackgroundAudio != "music.mp3" || enc.info.Output != "out.mp4" {
		t.Errorf("stream info = %+v", enc.info)
	}

	// Last frame: red box on the left half, white page on the right, both
	// at half brightness.
	left := enc.last.RGBAAt(1, 1)
	right := enc.last.RGBAAt(6, 1)
	if left.R < 126 || left.R > 128 || left.G != 0 {
		t.Errorf("left pixel = %v", left)
	}
	if right.R < 126 || right.R > 128 || right.G < 126 || right.G > 128 {
		t.Errorf("right pixel = %v", right)
	}
}

type countingClient struct {
	mu    sync.Mutex
	count int
}

func (c *countingClient) Publish(string, []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func TestPreview(t *testing.T) {
	scene := testScene()
	scene.FrameRate = 50
	scene.Layers[0].Duration = 0.2
	scene.Layers = scene.Layers[:1]

	client := &countingClient{}
	p := NewProject(&config.Config{}, scene, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Preview(ctx, client); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("preview did not end with the movie")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.count == 0 {
		t.Error("no frames streamed")
	}
}

func TestPreviewCancel(t *testing.T) {
	scene := testScene()
	scene.Repeat = true
	scene.Layers = scene.Layers[:1]
	p := NewProject(&config.Config{}, scene, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := p.Preview(ctx, nil); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Error("repeating preview returned before cancellation")
	}
}
