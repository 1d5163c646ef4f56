// Package video turns rendered frames into an encoded media file.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strings"
)

var (
	ErrNotStarted     = errors.New("video: encoder not started")
	ErrAlreadyStarted = errors.New("video: encoder already started")
	ErrFrameSize      = errors.New("video: frame size does not match stream")
)

// StreamInfo describes the stream an encoder receives.
type StreamInfo struct {
	Width, Height int
	FrameRate     float64
	// Duration is the expected length in seconds, used for audio fades.
	Duration float64

	AudioPath        string
	BackgroundAudio  string
	BackgroundVolume float64

	Output string
}

// Media is the finished result of an encoding.
type Media struct {
	Path     string
	Frames   int
	Duration float64
}

// Encoder is the media encoder collaborator of a recording: started once,
// fed frames, then either finished or aborted.
type Encoder interface {
	Start(ctx context.Context, info StreamInfo) error
	WriteFrame(frame *image.RGBA) error
	Finish() (Media, error)
	Abort()
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	Binary  string
	Codec   string
	Quality int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	info   StreamInfo
	frames int
}

func NewFFmpegEncoder(codec string, quality int) *FFmpegEncoder {
	return &FFmpegEncoder{Binary: "ffmpeg", Codec: codec, Quality: quality}
}

func (e *FFmpegEncoder) Start(ctx context.Context, info StreamInfo) error {
	if e.cmd != nil {
		return ErrAlreadyStarted
	}

	args := e.buildFFmpegArgs(info)
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	e.stderr.Reset()
	cmd.Stderr = &e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	e.cmd, e.stdin, e.info, e.frames = cmd, stdin, info, 0
	return nil
}

func (e *FFmpegEncoder) WriteFrame(frame *image.RGBA) error {
	if e.cmd == nil {
		return ErrNotStarted
	}
	if frame.Rect.Dx() != e.info.Width || frame.Rect.Dy() != e.info.Height {
		return fmt.Errorf("%w: %dx%d", ErrFrameSize, frame.Rect.Dx(), frame.Rect.Dy())
	}
	if err := writeRawRGBA(e.stdin, frame); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	e.frames++
	return nil
}

func (e *FFmpegEncoder) Finish() (Media, error) {
	if e.cmd == nil {
		return Media{}, ErrNotStarted
	}
	cmd := e.cmd
	e.cmd = nil

	e.stdin.Close()
	if err := cmd.Wait(); err != nil {
		return Media{}, fmt.Errorf("ffmpeg wait error: %w, output: %s", err, lastLines(e.stderr.String(), 5))
	}

	media := Media{Path: e.info.Output, Frames: e.frames}
	if e.info.FrameRate > 0 {
		media.Duration = float64(e.frames) / e.info.FrameRate
	}
	return media, nil
}

// Abort kills ffmpeg and removes the partial output.
func (e *FFmpegEncoder) Abort() {
	if e.cmd == nil {
		return
	}
	cmd := e.cmd
	e.cmd = nil

	e.stdin.Close()
	if cmd.Process != nil {
		cmd.Process.Kill()
	}
	cmd.Wait()
	if e.info.Output != "" {
		os.Remove(e.info.Output)
	}
}

func (e *FFmpegEncoder) buildFFmpegArgs(info StreamInfo) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-framerate", fmt.Sprintf("%g", info.FrameRate),
		"-i", "-",
	}

	audioOut := ""
	if info.AudioPath != "" {
		args = append(args, "-i", info.AudioPath)
		audioOut = "1:a"
	}
	if info.BackgroundAudio != "" {
		bgIndex := 1
		if info.AudioPath != "" {
			bgIndex = 2
		}
		args = append(args, "-stream_loop", "-1", "-i", info.BackgroundAudio)

		filter := fmt.Sprintf("[%d:a]%s[bg_a]", bgIndex, backgroundVolume(info))
		if info.AudioPath != "" {
			filter += ";[1:a]volume=1.0[main_a];[main_a][bg_a]amix=inputs=2:duration=first:dropout_transition=3[aout]"
			audioOut = "[aout]"
		} else {
			audioOut = "[bg_a]"
		}
		args = append(args, "-filter_complex", filter)
	}

	args = append(args, "-map", "0:v")
	if audioOut != "" {
		args = append(args, "-map", audioOut, "-c:a", "aac", "-shortest")
	}

	args = append(args, "-pix_fmt", "yuv420p", "-c:v", e.Codec)
	switch e.Codec {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on some versions.
		bitrate := e.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", e.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", e.Quality), "-preset", "medium")
	}

	args = append(args, info.Output)
	return args
}

// backgroundVolume fades the looped background track in and out over the
// expected duration.
func backgroundVolume(info StreamInfo) string {
	vol := info.BackgroundVolume
	if vol <= 0 {
		vol = 1
	}
	total := info.Duration
	if total <= 0 {
		return fmt.Sprintf("volume=%f", vol)
	}

	fadeIn, fadeOut := 5.0, 5.0
	if total < fadeIn+fadeOut {
		fadeIn = total * 0.1
		fadeOut = total * 0.1
	}
	return fmt.Sprintf("volume='%f*(if(lte(t,%f), 0.1 + 0.9*(t/%f), if(gte(t, %f), (%f-t)/%f, 1.0)))':eval=frame",
		vol, fadeIn, fadeIn, total-fadeOut, total, fadeOut)
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
