package system

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"intro.yaml", "outro.YML", "notes.txt"}

	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(path, modTime, modTime)
	}

	latest, err := FindLatest(dir, SceneExtensions...)
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}
	if !strings.HasSuffix(latest, "outro.YML") {
		t.Errorf("Expected outro.YML, got %s", latest)
	}

	if _, err := FindLatest(dir, AudioExtensions...); err == nil {
		t.Error("Expected error when no audio files exist")
	}
}

func TestImagePool(t *testing.T) {
	pool := NewImagePool()
	r := image.Rect(0, 0, 16, 9)

	img := pool.Get(r)
	if img.Rect != r {
		t.Fatalf("Expected bounds %v, got %v", r, img.Rect)
	}
	pool.Put(img)
	pool.Put(nil)
	pool.Put(&image.RGBA{Rect: r})

	other := pool.Get(image.Rect(0, 0, 4, 4))
	if other.Rect.Dx() != 4 {
		t.Errorf("Expected a 4px wide buffer, got %v", other.Rect)
	}

	stats := pool.Stats()
	if stats.Allocated < 2 || stats.Allocated+stats.Reused != 2 {
		t.Errorf("Stats = %+v, want 2 Gets accounted for", stats)
	}
}

func TestDefaultQuality(t *testing.T) {
	tests := map[string]int{
		"h264_videotoolbox": 75,
		"h264_nvenc":        28,
		"libx264":           23,
	}
	for enc, want := range tests {
		if got := DefaultQuality(enc); got != want {
			t.Errorf("DefaultQuality(%s) = %d, want %d", enc, got, want)
		}
	}
}

func TestProcessStats(t *testing.T) {
	stats, err := ProcessStats(time.Now().Add(-time.Second))
	if err != nil {
		t.Skipf("process stats unavailable: %v", err)
	}
	if stats.RSS == 0 {
		t.Error("Expected non-zero RSS")
	}
	if !strings.Contains(stats.String(), "MiB") {
		t.Errorf("Unexpected report: %s", stats)
	}
}
