package stream

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/movie"
	"github.com/ivlev/reel/internal/surface"
	"github.com/lucasb-eyer/go-colorful"
)

type fakeClient struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (c *fakeClient) Publish(topic string, payload []byte) error {
	if c.err != nil {
		return c.err
	}
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload)
	return nil
}

func halves() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{B: 128, A: 128})
			}
		}
	}
	return img
}

func TestSample(t *testing.T) {
	f := Sample(halves(), 2, 1)
	if len(f) != 2 {
		t.Fatalf("len = %d, want 2", len(f))
	}
	if f[0] != (colorful.Color{R: 1}) {
		t.Errorf("left = %v, want red", f[0])
	}
	if f[1] != (colorful.Color{B: 1}) {
		t.Errorf("right = %v, want un-premultiplied blue", f[1])
	}

	// More cells than pixels still yields one color per cell.
	if got := len(Sample(halves(), 8, 4)); got != 32 {
		t.Errorf("oversampled len = %d, want 32", got)
	}
}

func TestMarshalBinary(t *testing.T) {
	b, err := Frame{{R: 1}, {G: 2}, {B: 0.5}}.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if n := binary.LittleEndian.Uint16(b); n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	want := []byte{255, 0, 0, 0, 255, 0, 0, 0, 128}
	if string(b[2:]) != string(want) {
		t.Errorf("pixels = %v, want %v", b[2:], want)
	}

	if _, err := make(Frame, 70000).MarshalBinary(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("oversized frame = %v", err)
	}
}

func TestPublisher(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, Config{Topic: "home/wall/stream", Columns: 2, Rows: 1})

	if err := p.Publish(halves()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(client.payloads) != 1 || client.topics[0] != "home/wall/stream" {
		t.Fatalf("published %d payloads to %v", len(client.payloads), client.topics)
	}
	if got := len(client.payloads[0]); got != 2+2*3 {
		t.Errorf("payload length %d", got)
	}

	client.err = errors.New("offline")
	if err := p.Publish(halves()); err == nil {
		t.Error("expected client error")
	}
	if p.Sent() != 1 {
		t.Errorf("Sent = %d, want 1", p.Sent())
	}
}

func TestPublisherSmoothing(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, Config{Columns: 1, Rows: 1, Smoothing: 0.5})

	black := image.NewRGBA(image.Rect(0, 0, 1, 1))
	black.SetRGBA(0, 0, color.RGBA{A: 255})
	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})

	p.Publish(black)
	p.Publish(white)

	last := client.payloads[1]
	if last[2] == 0 || last[2] == 255 {
		t.Errorf("second frame not blended: %v", last[2:])
	}
}

func TestAttachPublishesFrames(t *testing.T) {
	sched := movie.NewManualScheduler()
	m, err := movie.New(movie.Options{Surface: surface.NewCanvas(4, 4), Scheduler: sched, Background: "#00ff00"})
	if err != nil {
		t.Fatalf("movie.New failed: %v", err)
	}
	m.AddLayer(layer.NewBase(0, 1))

	client := &fakeClient{}
	detach := NewPublisher(client, Config{Columns: 1, Rows: 1}).Attach(m)

	m.Play()
	sched.AdvanceTo(0)
	sched.AdvanceTo(0.5)
	detach()
	sched.AdvanceTo(0.75)

	if len(client.payloads) != 2 {
		t.Fatalf("published %d frames, want 2", len(client.payloads))
	}
	if got := client.payloads[0][2:]; got[1] != 255 {
		t.Errorf("frame color = %v, want green", got)
	}
}
