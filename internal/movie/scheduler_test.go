package movie

import (
	"testing"
	"time"

	"github.com/ivlev/reel/internal/layer"
)

func TestManualScheduler(t *testing.T) {
	s := NewManualScheduler()
	var got []float64
	s.RequestFrame(func(now float64) {
		got = append(got, now)
		// Requests made from a callback wait for the next advance.
		s.RequestFrame(func(now float64) { got = append(got, now) })
	})

	if n := s.Advance(0.5); n != 1 {
		t.Errorf("Advance fired %d, want 1", n)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
	s.AdvanceTo(0.25)
	if len(got) != 2 || got[0] != 0.5 || got[1] != 0.5 {
		t.Errorf("timestamps = %v, want the clock to never go back", got)
	}
	if s.Now() != 0.5 {
		t.Errorf("Now = %g", s.Now())
	}
}

func TestTickerScheduler(t *testing.T) {
	s := NewTickerScheduler(200)
	defer s.Close()

	fired := make(chan float64, 2)
	s.RequestFrame(func(now float64) { fired <- now })

	select {
	case first := <-fired:
		s.RequestFrame(func(now float64) { fired <- now })
		select {
		case second := <-fired:
			if second <= first {
				t.Errorf("timestamps not increasing: %g then %g", first, second)
			}
		case <-time.After(time.Second):
			t.Fatal("second frame never fired")
		}
	case <-time.After(time.Second):
		t.Fatal("frame never fired")
	}
}

// Writes from another goroutine while the ticker renders. Run with -race.
func TestSetDuringTickerPlayback(t *testing.T) {
	sched := NewTickerScheduler(1000)
	defer sched.Close()
	m := newTestMovie(t, sched, Options{Background: "#000000"})
	v := layer.NewVisual(0, 60, layer.Box{Width: 2, Height: 2})
	if err := m.AddLayer(v); err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}

	frames := make(chan struct{}, 1)
	m.On(EventFrame, func(Event) {
		select {
		case frames <- struct{}{}:
		default:
		}
	})
	if err := m.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	defer m.Pause()

	for i := 0; i < 200; i++ {
		v.Set("x", float64(i%2))
		v.Set("background", "#ff0000")
		v.SetTiming(0, 60+float64(i))
		m.Set("background", "#101010")
	}

	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("no frame rendered during writes")
	}
	if err := m.Err(); err != nil {
		t.Errorf("tick failed: %v", err)
	}
}
