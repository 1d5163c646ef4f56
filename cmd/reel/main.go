package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ivlev/reel/internal/config"
	"github.com/ivlev/reel/internal/engine"
	"github.com/ivlev/reel/internal/movie"
	"github.com/ivlev/reel/internal/source"
	"github.com/ivlev/reel/internal/stream"
	"github.com/ivlev/reel/internal/system"
	"github.com/ivlev/reel/internal/video"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// Raise system limits (macOS/Linux)
	system.InitResourceLimits()

	// Create the working directories if missing
	dirs := []string{"input/audio", "input/pdf", "input/scenes", "output"}
	for _, d := range dirs {
		os.MkdirAll(d, 0755)
	}

	if err := godotenv.Load(); err == nil {
		fmt.Println("[*] Loaded environment from .env")
	}

	scenePtr := flag.String("scene", "", "Scene YAML (default: newest file in input/scenes/, else built from -input)")
	inputPtr := flag.String("input", "", "PDF or image folder (default: newest file in input/pdf/)")
	outputPtr := flag.String("output", "", "Video path (default: generated in output/)")
	writeScenePtr := flag.String("write-scene", "", "Write the scene with planned cameras to YAML and exit")
	durationPtr := flag.Float64("duration", 0, "Total video duration (0: derived from -page-duration)")
	pageDurationPtr := flag.Float64("page-duration", 3, "Seconds per page or image")
	fadePtr := flag.Float64("fade", 0.5, "Crossfade between pages (seconds)")
	widthPtr := flag.Int("width", 1280, "Width")
	heightPtr := flag.Int("height", 720, "Height")
	fpsPtr := flag.Int("fps", 30, "FPS")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Page render workers")
	dpiPtr := flag.Int("dpi", 150, "DPI")
	audioPtr := flag.String("audio", "", "Audio track (default: newest file in input/audio/)")
	audioSyncPtr := flag.Bool("audio-sync", true, "Stretch the video to the audio length")
	presetPtr := flag.String("preset", "", "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	qualityPtr := flag.Int("quality", 0, "Video quality (0: auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	statsPtr := flag.Bool("stats", false, "Print a performance report")
	previewPtr := flag.Bool("preview", false, "Play the scene in real time instead of recording")
	mqttPtr := flag.String("mqtt-url", os.Getenv("REEL_MQTT_URL"), "MQTT broker receiving frames in -preview mode")
	verbosePtr := flag.Bool("verbose", false, "Debug logging from the engine")

	flag.Parse()

	level := slog.LevelWarn
	if *verbosePtr {
		level = slog.LevelDebug
	}
	movie.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	width, height := *widthPtr, *heightPtr
	switch *presetPtr {
	case "16:9":
		width, height = 1280, 720
	case "9:16":
		width, height = 720, 1280
	case "4:5":
		width, height = 1080, 1350
	}

	fpsSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "fps" {
			fpsSet = true
		}
	})

	// Audio
	audioPath := *audioPtr
	if audioPath == "" {
		latest, err := system.FindLatest("input/audio", system.AudioExtensions...)
		if err == nil {
			audioPath = latest
			fmt.Printf("[*] Audio: %s\n", audioPath)
		}
	}

	audioDuration := 0.0
	if audioPath != "" && *audioSyncPtr {
		d, err := system.GetAudioDuration(audioPath)
		if err == nil {
			audioDuration = d
			fmt.Printf("[*] Video duration set from audio: %.2fs\n", d)
		} else {
			log.Printf("[!] Could not read the audio duration: %v", err)
		}
	}

	cfg := &config.Config{
		ScenePath:    *scenePtr,
		InputPath:    *inputPtr,
		OutputVideo:  *outputPtr,
		WriteScene:   *writeScenePtr,
		Width:        width,
		Height:       height,
		FPS:          *fpsPtr,
		Workers:      *workersPtr,
		DPI:          *dpiPtr,
		PageDuration: *pageDurationPtr,
		AudioPath:    audioPath,
		AudioSync:    *audioSyncPtr,
		Quality:      *qualityPtr,
		ShowStats:    *statsPtr,
		Preview:      *previewPtr,
		MQTTURL:      *mqttPtr,
		BuildVersion: version,
	}

	if cfg.ScenePath == "" && cfg.InputPath == "" {
		if latest, err := system.FindLatest("input/scenes", system.SceneExtensions...); err == nil {
			cfg.ScenePath = latest
		}
	}

	var scene *config.Scene
	var err error
	if cfg.ScenePath != "" {
		scene, err = config.ReadScene(cfg.ScenePath)
		if err != nil {
			log.Fatalf("[-] Scene error: %v", err)
		}
		fmt.Printf("[*] Scene: %s\n", cfg.ScenePath)
	} else {
		scene, err = autoScene(cfg, *durationPtr, audioDuration, *fadePtr)
		if err != nil {
			log.Fatalf("[-] Error: %v", err)
		}
	}
	if fpsSet || scene.FrameRate == 0 {
		scene.FrameRate = float64(cfg.FPS)
	}

	if cfg.OutputVideo == "" {
		nameSource := cfg.ScenePath
		if nameSource == "" {
			nameSource = cfg.InputPath
		}
		cfg.OutputVideo = outputName(nameSource)
	}

	cfg.VideoEncoder = system.GetBestH264Encoder()
	if cfg.VideoEncoder != "libx264" {
		fmt.Printf("[*] Hardware encoder: %s\n", cfg.VideoEncoder)
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	project := engine.NewProject(cfg, scene, video.NewFFmpegEncoder(cfg.VideoEncoder, cfg.Quality))
	if cfg.ScenePath != "" && audioDuration > 0 {
		project.SyncToAudio(audioDuration)
	}
	if err := project.Load(ctx); err != nil {
		log.Fatalf("[-] Source error: %v", err)
	}
	if err := project.PlanCameras(); err != nil {
		log.Fatalf("[-] Camera planning error: %v", err)
	}

	if cfg.WriteScene != "" {
		os.MkdirAll(filepath.Dir(cfg.WriteScene), 0755)
		if err := config.WriteScene(scene, cfg.WriteScene); err != nil {
			log.Fatalf("[-] Could not write the scene: %v", err)
		}
		fmt.Printf("[+++] Done! Scene written to %s\n", cfg.WriteScene)
		return
	}

	if cfg.Preview {
		if err := preview(ctx, cfg, project); err != nil {
			log.Fatalf("[-] Preview error: %v", err)
		}
		return
	}

	if err := project.Run(ctx); err != nil {
		log.Fatalf("[-] Project error: %v", err)
	}

	fmt.Printf("[+++] Done! Output: %s\n", cfg.OutputVideo)
}

// autoScene builds a scene from the pages of the input.
func autoScene(cfg *config.Config, duration, audioDuration, fade float64) (*config.Scene, error) {
	if cfg.InputPath == "" {
		latest, err := system.FindLatest("input/pdf", ".pdf")
		if err != nil {
			return nil, fmt.Errorf("%v. Put a PDF in input/pdf/ or pass -scene", err)
		}
		cfg.InputPath = latest
		fmt.Printf("[*] Input: %s\n", cfg.InputPath)
	}

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	total := duration
	if audioDuration > 0 {
		total = audioDuration
	}
	if total <= 0 {
		total = float64(src.Len()) * cfg.PageDuration
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return engine.AutoScene(cfg, src, total, fade, r)
}

func preview(ctx context.Context, cfg *config.Config, project *engine.Project) error {
	streamCfg := stream.Config{Topic: "reel/frame", Columns: 16, Rows: 16}
	if project.Scene.Stream != nil {
		streamCfg = *project.Scene.Stream
	}
	if cfg.MQTTURL != "" {
		streamCfg.URL = cfg.MQTTURL
	}
	if streamCfg.URL == "" {
		return project.Preview(ctx, nil)
	}

	client, err := stream.Connect(streamCfg)
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Printf("[*] Streaming frames: %s -> %s\n", streamCfg.URL, streamCfg.Topic)

	project.Scene.Stream = &streamCfg
	return project.Preview(ctx, client)
}

// outputName derives a timestamped video name in output/ from path.
func outputName(path string) string {
	baseName := filepath.Base(path)
	ext := filepath.Ext(baseName)
	nameOnly := strings.TrimSuffix(baseName, ext)
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}
