// Package movie implements the timeline: playback state, the frame-driven
// render loop, layer lifecycle, compositing and recording.
package movie

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ivlev/reel/internal/effects"
	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/property"
	"github.com/ivlev/reel/internal/surface"
	"github.com/ivlev/reel/internal/video"
)

var (
	ErrInvalidState  = errors.New("movie: invalid state")
	ErrInvalidTime   = errors.New("movie: invalid time")
	ErrAttached      = errors.New("movie: element already attached")
	ErrNotFound      = errors.New("movie: element not in movie")
	ErrNoEncoder     = errors.New("movie: no encoder configured")
	ErrNoSurface     = errors.New("movie: no surface configured")
	ErrNoScheduler   = errors.New("movie: no scheduler configured")
	ErrRecordAborted = errors.New("movie: recording aborted")
)

type State int

const (
	StatePaused State = iota
	StatePlaying
	StateRecording
	StateEnded
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateRecording:
		return "recording"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	Surface   surface.Surface
	Scheduler Scheduler
	// Encoder is required only for Record.
	Encoder video.Encoder

	// Background is a literal color, hex string or property.
	Background any
	Repeat     bool
	// AutoRefresh requests an instant render after every edit and seek
	// while paused.
	AutoRefresh bool
}

// Movie is the top-level composition. It is an element itself: its
// background is resolved like any other property.
type Movie struct {
	property.Node

	// mu guards everything below; a tick holds it for its whole duration.
	mu        sync.Mutex
	surface   surface.Surface
	saved     surface.Surface
	scheduler Scheduler
	encoder   video.Encoder
	cache     *property.Cache

	layers  []layer.Layer
	effects []effects.Effect

	repeat      bool
	autoRefresh bool

	state       State
	currentTime float64
	playOffset  float64
	playRef     float64

	// gen invalidates scheduled ticks on every state transition.
	gen        uint64
	pending    bool
	pendingGen uint64
	instant    bool
	loaded     bool

	recording *Recording
	recordEnd float64
	err       error

	evMu     sync.Mutex
	handlers map[string][]*Handler
	queue    []Event
}

func New(opts Options) (*Movie, error) {
	if opts.Surface == nil {
		return nil, ErrNoSurface
	}
	if opts.Scheduler == nil {
		return nil, ErrNoScheduler
	}

	m := &Movie{
		Node:        property.NewNode(property.Bag{"background": opts.Background}),
		surface:     opts.Surface,
		scheduler:   opts.Scheduler,
		encoder:     opts.Encoder,
		cache:       property.NewCache(),
		repeat:      opts.Repeat,
		autoRefresh: opts.AutoRefresh,
	}
	// The movie owns its own properties.
	m.Bind(property.Binding{Owner: m.ID(), Guard: &m.mu, OnChange: func(path string, v any) {
		m.changed(EventChange, m, path, v)
	}})
	return m, nil
}

func (m *Movie) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Movie) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Duration is the end of the latest layer, or 0 without layers.
func (m *Movie) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration()
}

func (m *Movie) duration() float64 {
	var d float64
	for _, l := range m.layers {
		d = max(d, l.StartTime()+l.Duration())
	}
	return d
}

func (m *Movie) Repeat() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeat
}

func (m *Movie) SetRepeat(repeat bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeat = repeat
}

// Surface is the current output surface, the off-screen one while
// recording.
func (m *Movie) Surface() surface.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface
}

// Err returns the error that aborted the last tick, if any.
func (m *Movie) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Movie) Layers() []layer.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]layer.Layer(nil), m.layers...)
}

func (m *Movie) Effects() []effects.Effect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]effects.Effect(nil), m.effects...)
}

// AddLayer appends l on top of the existing layers.
func (m *Movie) AddLayer(l layer.Layer) error {
	if err := layer.Validate(l); err != nil {
		return err
	}
	if l.Owner() != 0 {
		return ErrAttached
	}

	m.mu.Lock()
	m.layers = append(m.layers, l)
	l.Attach(property.Binding{Owner: m.ID(), Guard: &m.mu, OnChange: func(path string, v any) {
		m.changed(EventChangeLayer, l, path, v)
	}})
	m.emit(EventChangeLayer, m.currentTime, Change{Target: l})
	m.editedLocked()
	m.unlock()
	return nil
}

func (m *Movie) RemoveLayer(l layer.Layer) error {
	m.mu.Lock()
	i := indexOf(m.layers, l)
	if i < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	if l.Active() {
		l.Stop()
		m.emit(EventLayerStop, m.currentTime, l)
	}
	l.Detach()
	m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
	m.emit(EventChangeLayer, m.currentTime, Change{Target: l})
	m.editedLocked()
	m.unlock()
	return nil
}

// AddEffect appends e to the end of the effect pipeline.
func (m *Movie) AddEffect(e effects.Effect) error {
	if e.Owner() != 0 {
		return ErrAttached
	}

	m.mu.Lock()
	m.effects = append(m.effects, e)
	e.Attach(property.Binding{Owner: m.ID(), Guard: &m.mu, OnChange: func(path string, v any) {
		m.changed(EventChangeEffect, e, path, v)
	}})
	m.emit(EventChangeEffect, m.currentTime, Change{Target: e})
	m.editedLocked()
	m.unlock()
	return nil
}

func (m *Movie) RemoveEffect(e effects.Effect) error {
	m.mu.Lock()
	i := indexOf(m.effects, e)
	if i < 0 {
		m.mu.Unlock()
		return ErrNotFound
	}
	e.Detach()
	m.effects = append(m.effects[:i:i], m.effects[i+1:]...)
	m.emit(EventChangeEffect, m.currentTime, Change{Target: e})
	m.editedLocked()
	m.unlock()
	return nil
}

// changed reports a property write. Writes must not happen from inside
// Render or Apply.
func (m *Movie) changed(name string, target any, path string, v any) {
	m.emit(name, m.CurrentTime(), Change{Target: target, Path: path, Value: v})
	if m.autoRefresh {
		m.Refresh()
	} else {
		m.dispatch()
	}
}

// editedLocked follows a collection edit.
func (m *Movie) editedLocked() {
	if m.autoRefresh {
		m.refreshLocked()
	}
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
