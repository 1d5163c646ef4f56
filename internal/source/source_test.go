package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, 2))
	for x := 0; x < w; x++ {
		img.Set(x, 0, c)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, color.White)
	writePNG(t, filepath.Join(dir, "a.PNG"), 3, color.Black)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644)

	src, err := Open(dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.Len() != 2 {
		t.Fatalf("Len = %d, want 2", src.Len())
	}
	w, h, err := src.Size(0)
	if err != nil || w != 3 || h != 2 {
		t.Errorf("first page = %gx%g, %v; want the sorted a.PNG 3x2", w, h, err)
	}
	if _, err := src.Render(5, 72); !errors.Is(err, ErrPageRange) {
		t.Errorf("Render(5) = %v, want ErrPageRange", err)
	}
}

func TestPreload(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"1.png", "2.png", "3.png", "4.png"} {
		writePNG(t, filepath.Join(dir, name), i+1, color.White)
	}
	src, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}

	pages, err := Preload(context.Background(), src, 72, 2)
	if err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	for i, p := range pages {
		if p.Bounds().Dx() != i+1 {
			t.Errorf("page %d width %d, pages out of order", i, p.Bounds().Dx())
		}
	}
}

type failingSource struct {
	Source
	n int
}

func (f failingSource) Len() int { return f.n }

func (f failingSource) Render(index int, _ int) (image.Image, error) {
	if index == 2 {
		return nil, errors.New("corrupt page")
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestPreloadError(t *testing.T) {
	_, err := Preload(context.Background(), failingSource{n: 4}, 72, 0)
	if err == nil {
		t.Fatal("expected the page error")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "cover.png")
	writePNG(t, single, 4, color.White)
	notes := filepath.Join(dir, "notes.txt")
	os.WriteFile(notes, []byte("skip"), 0o644)
	empty := filepath.Join(dir, "empty")
	os.Mkdir(empty, 0o755)

	tests := []struct {
		name  string
		path  string
		pages int
		err   error
	}{
		{"single image", single, 1, nil},
		{"directory", dir, 1, nil},
		{"unsupported file", notes, 0, ErrUnsupported},
		{"directory without images", empty, 0, ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(tt.path)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Open = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer src.Close()
			if src.Len() != tt.pages {
				t.Errorf("Len = %d, want %d", src.Len(), tt.pages)
			}
		})
	}

	if _, err := Open(filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIsImage(t *testing.T) {
	for path, want := range map[string]bool{
		"a.webp":    true,
		"b.TIFF":    true,
		"c.jpeg":    true,
		"deck.pdf":  false,
		"README":    false,
		"scan.bmp":  true,
		"music.mp3": false,
	} {
		if got := IsImage(path); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", path, got, want)
		}
	}
}
