package movie

import (
	"sync"
	"time"
)

// Scheduler is the frame-scheduling collaborator. RequestFrame invokes fn
// once, later, with a monotonically increasing timestamp in seconds.
type Scheduler interface {
	Now() float64
	RequestFrame(fn func(now float64))
}

// TickerScheduler fires pending frame requests on a fixed wall-clock
// interval from a single goroutine, so callbacks never overlap.
type TickerScheduler struct {
	interval time.Duration
	start    time.Time

	mu      sync.Mutex
	pending []func(float64)

	stop chan struct{}
	once sync.Once
}

// NewTickerScheduler starts a scheduler firing fps times per second. Call
// Close to stop it.
func NewTickerScheduler(fps float64) *TickerScheduler {
	if fps <= 0 {
		fps = 30
	}
	s := &TickerScheduler{
		interval: time.Duration(float64(time.Second) / fps),
		start:    time.Now(),
		stop:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *TickerScheduler) Now() float64 {
	return time.Since(s.start).Seconds()
}

func (s *TickerScheduler) RequestFrame(fn func(now float64)) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

func (s *TickerScheduler) run() {
	frameTimer := time.NewTicker(s.interval)
	defer frameTimer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-frameTimer.C:
			s.mu.Lock()
			fns := s.pending
			s.pending = nil
			s.mu.Unlock()

			now := s.Now()
			for _, fn := range fns {
				fn(now)
			}
		}
	}
}

// Close stops the scheduler. Pending requests are dropped.
func (s *TickerScheduler) Close() {
	s.once.Do(func() { close(s.stop) })
}

// ManualScheduler is a deterministic clock for tests and offline export.
// Requests fire only when the clock is advanced.
type ManualScheduler struct {
	mu      sync.Mutex
	now     float64
	pending []func(float64)
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *ManualScheduler) RequestFrame(fn func(now float64)) {
	s.mu.Lock()
	s.pending = append(s.pending, fn)
	s.mu.Unlock()
}

// Advance moves the clock by dt and fires the requests pending before the
// call. It returns how many fired.
func (s *ManualScheduler) Advance(dt float64) int {
	s.mu.Lock()
	now := s.now + dt
	s.mu.Unlock()
	return s.AdvanceTo(now)
}

// AdvanceTo sets the clock to now, never backwards, and fires the pending
// requests.
func (s *ManualScheduler) AdvanceTo(now float64) int {
	s.mu.Lock()
	if now > s.now {
		s.now = now
	}
	now = s.now
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Pending reports the number of requests waiting for the next advance.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
