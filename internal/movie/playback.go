package movie

import (
	"fmt"
	"math"

	"github.com/ivlev/reel/internal/layer"
)

// Play starts playback from the current time. It fails with
// ErrInvalidState while already playing or recording.
func (m *Movie) Play() error {
	m.mu.Lock()
	defer m.unlock()

	if m.state == StatePlaying || m.state == StateRecording {
		return fmt.Errorf("%w: play while %s", ErrInvalidState, m.state)
	}
	m.startLocked(StatePlaying)
	return nil
}

func (m *Movie) startLocked(state State) {
	m.gen++
	m.state = state
	m.err = nil
	m.playOffset = m.currentTime
	m.playRef = m.scheduler.Now()
	Logger().Debug("movie state", "state", state, "time", m.currentTime)
	m.emit(EventPlay, m.currentTime, nil)
	m.requestTickLocked()
}

// Pause stops playback or recording. Every active layer is stopped and all
// layers are marked inactive.
func (m *Movie) Pause() {
	m.mu.Lock()
	m.haltLocked(StatePaused, nil)
	m.unlock()
}

// Stop pauses and rewinds to 0.
func (m *Movie) Stop() {
	m.mu.Lock()
	m.haltLocked(StatePaused, nil)
	m.currentTime = 0
	m.playOffset = 0
	m.emit(EventTimeUpdate, 0, nil)
	if m.autoRefresh {
		m.refreshLocked()
	}
	m.unlock()
}

// Seek moves the current time. While paused with AutoRefresh the new frame
// is rendered instantly.
func (m *Movie) Seek(t float64) error {
	m.mu.Lock()
	defer m.unlock()

	if math.IsNaN(t) || t < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidTime, t)
	}
	if m.state == StateRecording {
		return fmt.Errorf("%w: seek while recording", ErrInvalidState)
	}
	m.currentTime = t
	m.playOffset = t
	m.playRef = m.scheduler.Now()
	m.emit(EventSeek, t, nil)
	m.emit(EventTimeUpdate, t, nil)
	if m.autoRefresh {
		m.refreshLocked()
	}
	return nil
}

// Refresh renders the current frame once without advancing time or
// changing layer activation. While media is still loading the render is
// repeated until every visible layer is ready. It has no effect while
// playing, since the next tick renders anyway.
func (m *Movie) Refresh() {
	m.mu.Lock()
	m.refreshLocked()
	m.unlock()
}

func (m *Movie) refreshLocked() {
	if m.state == StatePlaying || m.state == StateRecording {
		return
	}
	m.instant = true
	m.loaded = false
	m.requestTickLocked()
}

// haltLocked leaves Playing or Recording. recErr, when set, fails an
// ongoing recording instead of finishing it.
func (m *Movie) haltLocked(next State, recErr error) {
	for _, l := range m.layers {
		if l.Active() {
			l.Stop()
			m.emit(EventLayerStop, m.currentTime, l)
		}
		l.SetActive(false)
	}

	wasRunning := m.state == StatePlaying || m.state == StateRecording
	if wasRunning {
		// Ticks of the stopped run become stale. A pending instant
		// render of a paused movie stays valid.
		m.gen++
	}
	m.playOffset = m.currentTime
	m.state = next
	if m.recording != nil {
		m.finishRecordingLocked(recErr)
	}
	if wasRunning {
		Logger().Debug("movie state", "state", next, "time", m.currentTime)
		m.emit(EventPause, m.currentTime, nil)
	}
}

func (m *Movie) requestTickLocked() {
	if m.pending && m.pendingGen == m.gen {
		return
	}
	gen := m.gen
	m.pending = true
	m.pendingGen = gen
	m.scheduler.RequestFrame(func(now float64) {
		m.tick(gen, now)
	})
}

func (m *Movie) tick(gen uint64, now float64) {
	m.mu.Lock()
	defer m.unlock()

	if m.pendingGen == gen {
		m.pending = false
	}
	if gen != m.gen {
		// Stale: a state transition happened after it was scheduled.
		return
	}

	running := m.state == StatePlaying || m.state == StateRecording
	instant := m.instant && !running
	m.instant = false
	if !running && !instant {
		return
	}

	m.cache.Clear(m.ID())

	if running {
		m.currentTime = m.playOffset + (now - m.playRef)
		m.emit(EventTimeUpdate, m.currentTime, nil)

		if d := m.duration(); m.currentTime >= d {
			m.endLocked(now)
			if m.state != StatePlaying {
				return
			}
		} else if m.recording != nil && m.currentTime >= m.recordEnd {
			m.haltLocked(StatePaused, nil)
			return
		}
		m.updateLayersLocked()
	}

	if err := m.renderLocked(); err != nil {
		m.failLocked(err)
		return
	}

	if instant {
		if !m.readyLocked() {
			m.instant = true
			m.requestTickLocked()
			return
		}
		if !m.loaded {
			m.loaded = true
			m.emit(EventLoadedData, m.currentTime, nil)
		}
		return
	}
	m.requestTickLocked()
}

// endLocked handles reaching the end of the timeline.
func (m *Movie) endLocked(now float64) {
	m.emit(EventEnded, m.currentTime, nil)
	m.currentTime = 0
	m.emit(EventTimeUpdate, 0, nil)

	if m.repeat && m.state == StatePlaying {
		m.playOffset = 0
		m.playRef = now
		return
	}
	m.haltLocked(StateEnded, nil)
}

func (m *Movie) failLocked(err error) {
	m.err = err
	Logger().Warn("tick aborted", "time", m.currentTime, "err", err)
	m.emit(EventError, m.currentTime, err)
	m.haltLocked(StatePaused, err)
}

// readyLocked reports whether every in-window layer with media has loaded.
func (m *Movie) readyLocked() bool {
	for _, l := range m.layers {
		if !layer.InWindow(l, m.currentTime) {
			continue
		}
		if ld, ok := l.(layer.Loader); ok && !ld.Ready() {
			return false
		}
	}
	return true
}
