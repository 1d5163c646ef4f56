package movie

import (
	"context"
	"fmt"

	"github.com/ivlev/reel/internal/surface"
	"github.com/ivlev/reel/internal/video"
)

type RecordOptions struct {
	FrameRate float64
	// Duration limits the recording; zero records to the end of the
	// timeline.
	Duration float64

	AudioPath        string
	BackgroundAudio  string
	BackgroundVolume float64
	Output           string
}

// Recording is the pending result of Record.
type Recording struct {
	done   chan struct{}
	frames int
	media  video.Media
	err    error
}

// Done is closed once the recording has stopped.
func (r *Recording) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the recording stops and returns the encoded media.
func (r *Recording) Wait(ctx context.Context) (video.Media, error) {
	select {
	case <-r.done:
		return r.media, r.err
	case <-ctx.Done():
		return video.Media{}, ctx.Err()
	}
}

// Record plays the movie from the current time into the encoder. Frames
// are rendered on an off-screen canvas and the original surface is restored
// when recording stops, whether it finished, was paused or failed.
// Recording ignores Repeat. Cancelling ctx aborts the recording.
func (m *Movie) Record(ctx context.Context, opts RecordOptions) (*Recording, error) {
	m.mu.Lock()
	defer m.unlock()

	if m.state != StatePaused && m.state != StateEnded {
		return nil, fmt.Errorf("%w: record while %s", ErrInvalidState, m.state)
	}
	if m.encoder == nil {
		return nil, ErrNoEncoder
	}

	end := m.duration()
	if opts.Duration > 0 {
		end = min(end, m.currentTime+opts.Duration)
	}

	b := m.surface.Bounds()
	info := video.StreamInfo{
		Width:            b.Dx(),
		Height:           b.Dy(),
		FrameRate:        opts.FrameRate,
		Duration:         end - m.currentTime,
		AudioPath:        opts.AudioPath,
		BackgroundAudio:  opts.BackgroundAudio,
		BackgroundVolume: opts.BackgroundVolume,
		Output:           opts.Output,
	}
	if err := m.encoder.Start(ctx, info); err != nil {
		return nil, fmt.Errorf("start encoder: %w", err)
	}

	rec := &Recording{done: make(chan struct{})}
	m.recording = rec
	m.recordEnd = end
	m.saved = m.surface
	m.surface = surface.NewPooledCanvas(b)

	Logger().Info("recording started", "from", m.currentTime, "to", end, "output", opts.Output)
	m.startLocked(StateRecording)

	go func() {
		select {
		case <-ctx.Done():
			m.abortRecording(rec, ctx.Err())
		case <-rec.done:
		}
	}()
	return rec, nil
}

func (m *Movie) abortRecording(rec *Recording, cause error) {
	m.mu.Lock()
	defer m.unlock()
	if m.recording != rec {
		return
	}
	m.haltLocked(StatePaused, fmt.Errorf("%w: %w", ErrRecordAborted, cause))
}

// finishRecordingLocked stops the encoder and restores the output surface.
// A non-nil cause aborts the encoder and fails the recording.
func (m *Movie) finishRecordingLocked(cause error) {
	rec := m.recording
	m.recording = nil

	if c, ok := m.surface.(*surface.Canvas); ok {
		c.Release()
	}
	m.surface = m.saved
	m.saved = nil

	if cause != nil {
		m.encoder.Abort()
		rec.err = cause
	} else {
		rec.media, rec.err = m.encoder.Finish()
	}
	if rec.err != nil {
		Logger().Warn("recording failed", "frames", rec.frames, "err", rec.err)
	} else {
		Logger().Info("recording finished", "frames", rec.media.Frames, "path", rec.media.Path)
	}

	close(rec.done)
	m.emit(EventRecordEnded, m.currentTime, rec)
}

// Err returns the recording's error once it has stopped.
func (r *Recording) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Media returns the encoded media once the recording has stopped.
func (r *Recording) Media() video.Media {
	select {
	case <-r.done:
		return r.media
	default:
		return video.Media{}
	}
}
