package movie

import (
	"fmt"

	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/property"
)

// updateLayersLocked starts layers entering their window and stops layers
// leaving it.
func (m *Movie) updateLayersLocked() {
	t := m.currentTime
	for _, l := range m.layers {
		in := layer.InWindow(l, t)
		switch {
		case in && !l.Active():
			l.Start()
			l.SetActive(true)
			Logger().Debug("layer start", "layer", l.ID(), "time", t)
			m.emit(EventLayerStart, t, l)
		case !in && l.Active():
			l.Stop()
			l.SetActive(false)
			Logger().Debug("layer stop", "layer", l.ID(), "time", t)
			m.emit(EventLayerStop, t, l)
		}
	}
}

// renderLocked composites one frame: background, in-window layers in list
// order, then the effect pipeline. While recording the frame goes to the
// encoder.
func (m *Movie) renderLocked() error {
	t := m.currentTime
	f := layer.Frame{Cache: m.cache, Time: t}

	bg, err := property.Color(m.cache, m, "background", t)
	if err != nil {
		return err
	}
	s := m.surface
	s.Clear()
	s.Fill(bg)

	for _, l := range m.layers {
		if !layer.InWindow(l, t) {
			continue
		}
		if err := l.Render(f); err != nil {
			return fmt.Errorf("render layer %d: %w", l.ID(), err)
		}
		d, ok := l.(layer.Drawable)
		if !ok {
			continue
		}
		if img, sr, dr, opacity, ok := d.Output(); ok {
			s.DrawImage(img, sr, dr, opacity)
		}
	}

	frame := s.RGBA()
	for _, e := range m.effects {
		if err := e.Apply(frame, f); err != nil {
			return fmt.Errorf("apply effect %d: %w", e.ID(), err)
		}
	}

	if m.recording != nil {
		if err := m.encoder.WriteFrame(frame); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
		m.recording.frames++
	}
	m.emit(EventFrame, t, frame)
	return nil
}
