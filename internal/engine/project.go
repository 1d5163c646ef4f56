// Package engine turns a scene into a movie and renders it to a video file
// or plays it in real time.
package engine

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ivlev/reel/internal/config"
	"github.com/ivlev/reel/internal/director"
	"github.com/ivlev/reel/internal/movie"
	"github.com/ivlev/reel/internal/source"
	"github.com/ivlev/reel/internal/stream"
	"github.com/ivlev/reel/internal/surface"
	"github.com/ivlev/reel/internal/system"
	"github.com/ivlev/reel/internal/video"
)

type Project struct {
	Config   *config.Config
	Scene    *config.Scene
	Encoder  video.Encoder
	Director *director.Director

	// pages holds the rendered pages of every image source by path.
	pages map[string][]image.Image
}

func NewProject(cfg *config.Config, scene *config.Scene, enc video.Encoder) *Project {
	return &Project{
		Config:   cfg,
		Scene:    scene,
		Encoder:  enc,
		Director: director.NewDirector(),
		pages:    make(map[string][]image.Image),
	}
}

// Load renders the pages of every image source the scene uses.
func (p *Project) Load(ctx context.Context) error {
	for _, l := range p.Scene.Layers {
		if l.Type != config.LayerImage {
			continue
		}
		if _, ok := p.pages[l.Source]; ok {
			continue
		}
		pages, err := p.loadSource(ctx, l.Source)
		if err != nil {
			return fmt.Errorf("source %s: %w", l.Source, err)
		}
		p.pages[l.Source] = pages
		fmt.Printf("[*] Source: %s | Pages: %d\n", l.Source, len(pages))
	}
	return nil
}

func (p *Project) loadSource(ctx context.Context, path string) ([]image.Image, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return source.Preload(ctx, src, p.Config.DPI, p.Config.Workers)
}

// SetPages provides the pages of a source directly instead of loading it.
func (p *Project) SetPages(path string, pages []image.Image) {
	p.pages[path] = pages
}

func (p *Project) page(path string, n int) (image.Image, error) {
	pages, ok := p.pages[path]
	if !ok {
		return nil, fmt.Errorf("source %s is not loaded", path)
	}
	if n <= 0 {
		n = 1
	}
	if n > len(pages) {
		return nil, fmt.Errorf("%s: %w: %d of %d", path, source.ErrPageRange, n, len(pages))
	}
	return pages[n-1], nil
}

// PlanCameras replaces every automatic camera with a tour planned over the
// regions detected on its page.
func (p *Project) PlanCameras() error {
	for i := range p.Scene.Layers {
		l := &p.Scene.Layers[i]
		if l.Type != config.LayerImage || !l.Camera.Auto {
			continue
		}
		page, err := p.page(l.Source, l.Page)
		if err != nil {
			return err
		}
		_, shots, err := p.Director.Tour(page, l.Duration)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i+1, err)
		}
		fmt.Printf("[*] Page %d of %s: %d camera shots\n", max(l.Page, 1), filepath.Base(l.Source), len(shots))
		l.Camera = config.Camera{Shots: shots}
	}
	return nil
}

// SyncToAudio stretches the scene to the length of the audio track.
func (p *Project) SyncToAudio(audioDuration float64) {
	d := p.Scene.Duration()
	if d <= 0 || audioDuration <= 0 {
		return
	}
	scale := audioDuration / d
	p.Scene.Scale(scale)
	fmt.Printf("[*] Scene stretched to the audio (x%.3f): %.2fs\n", scale, audioDuration)
}

func (p *Project) frameRate() float64 {
	if p.Scene.FrameRate > 0 {
		return p.Scene.FrameRate
	}
	if p.Config.FPS > 0 {
		return float64(p.Config.FPS)
	}
	return 30
}

// Run renders the scene into Config.OutputVideo. Frames are stepped by a
// manual clock, so rendering runs as fast as the encoder accepts frames.
func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()

	screen := surface.NewCanvas(p.Scene.Width, p.Scene.Height)
	sched := movie.NewManualScheduler()
	m, err := p.Build(screen, sched)
	if err != nil {
		return err
	}

	fps := p.frameRate()
	duration := m.Duration()
	total := int(math.Ceil(duration * fps))

	fmt.Println("--- [PROJECT: REEL ENGINE] ---")
	fmt.Printf("[*] Layers: %d | Effects: %d | Duration: %.2fs\n", len(m.Layers()), len(m.Effects()), duration)
	fmt.Printf("[*] Resolution: %dx%d @ %g FPS\n", p.Scene.Width, p.Scene.Height, fps)
	fmt.Println("-----------------------------")

	audio := p.Scene.Audio
	if p.Config.AudioPath != "" {
		audio.Path = p.Config.AudioPath
	}
	rec, err := m.Record(ctx, movie.RecordOptions{
		FrameRate:        fps,
		AudioPath:        audio.Path,
		BackgroundAudio:  audio.Background,
		BackgroundVolume: audio.Volume,
		Output:           p.Config.OutputVideo,
	})
	if err != nil {
		return err
	}

	renderStart := time.Now()
	if err := drive(sched, rec, fps, total); err != nil {
		return err
	}
	media, err := rec.Wait(ctx)
	if err != nil {
		return fmt.Errorf("record video: %w", err)
	}
	renderTime := time.Since(renderStart)

	if p.Config.ShowStats {
		p.report(startTime, renderTime, media)
	}
	return nil
}

// drive steps the clock one frame at a time until rec stops.
func drive(sched *movie.ManualScheduler, rec *movie.Recording, fps float64, total int) error {
	step := max(int(fps), 1)
	for i := 0; i <= total+step; i++ {
		select {
		case <-rec.Done():
			return nil
		default:
		}
		sched.AdvanceTo(float64(i) / fps)
		if i > 0 && i%step == 0 {
			fmt.Printf("[>] Ready: %d/%d\n", min(i, total), total)
		}
	}
	select {
	case <-rec.Done():
		return nil
	default:
		return fmt.Errorf("recording did not finish after %d frames", total+step)
	}
}

// Preview plays the scene in real time. Frames go to client when it is not
// nil. It returns when the movie ends or fails, or when ctx is cancelled;
// a repeating scene plays until cancelled.
func (p *Project) Preview(ctx context.Context, client stream.Client) error {
	sched := movie.NewTickerScheduler(p.frameRate())
	defer sched.Close()

	screen := surface.NewCanvas(p.Scene.Width, p.Scene.Height)
	m, err := p.Build(screen, sched)
	if err != nil {
		return err
	}

	if client != nil {
		cfg := stream.Config{Columns: 16, Rows: 16}
		if p.Scene.Stream != nil {
			cfg = *p.Scene.Stream
		}
		pub := stream.NewPublisher(client, cfg)
		detach := pub.Attach(m)
		defer func() {
			detach()
			fmt.Printf("[*] Frames streamed: %d\n", pub.Sent())
		}()
	}

	ended := make(chan struct{})
	var once sync.Once
	stop := func(movie.Event) { once.Do(func() { close(ended) }) }
	if !p.Scene.Repeat {
		m.On(movie.EventEnded, stop)
	}
	m.On(movie.EventError, stop)

	if err := m.Play(); err != nil {
		return err
	}
	fmt.Printf("[*] Preview: %.2fs (Ctrl+C to stop)\n", m.Duration())

	select {
	case <-ended:
	case <-ctx.Done():
		m.Pause()
	}
	return m.Err()
}

func (p *Project) report(startTime time.Time, renderTime time.Duration, media video.Media) {
	totalTime := time.Since(startTime)
	fps := float64(media.Frames) / renderTime.Seconds()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Frames: %d\n"+
			"Effective FPS: %.2f\n",
		p.Config.BuildVersion, totalTime.Seconds(), renderTime.Seconds(), media.Frames, fps,
	)
	if stats, err := system.ProcessStats(startTime); err == nil {
		report += stats.String() + "\n"
	}
	pool := system.FramePoolStats()
	report += fmt.Sprintf("Frame buffers: %d allocated, %d reused\n", pool.Allocated, pool.Reused)
	report += "----------------------------\n"
	fmt.Print(report)

	logEntry := fmt.Sprintf("[%s] Build: %s | Scene: %s | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.ScenePath),
		media.Frames,
		totalTime.Seconds(),
		renderTime.Seconds(),
		fps,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Could not write benchmark.log: %v\n", err)
	}
}
