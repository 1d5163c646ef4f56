// Package config holds run settings and the scene file format.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ivlev/reel/internal/stream"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScene = errors.New("config: invalid scene")

// Layer types.
const (
	LayerImage  = "image"
	LayerQR     = "qr"
	LayerVisual = "visual"
)

// Effect types.
const (
	EffectBrightness = "brightness"
	EffectGrayscale  = "grayscale"
	EffectTint       = "tint"
)

// Scene describes a movie: its layers, effects and output.
type Scene struct {
	Version    string  `yaml:"version"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FrameRate  float64 `yaml:"fps,omitempty"`
	Background Track   `yaml:"background,omitempty"`
	Repeat     bool    `yaml:"repeat,omitempty"`

	Audio   Audio          `yaml:"audio,omitempty"`
	Stream  *stream.Config `yaml:"stream,omitempty"`
	Layers  []Layer        `yaml:"layers"`
	Effects []Effect       `yaml:"effects,omitempty"`
}

type Audio struct {
	Path string `yaml:"path,omitempty"`
	// Background is mixed under Path at Volume.
	Background string  `yaml:"background,omitempty"`
	Volume     float64 `yaml:"volume,omitempty"`
}

// Layer is one layer of a scene. Times are in seconds; x, y, width and
// height in surface pixels. Width and height default to the scene size.
type Layer struct {
	Type     string  `yaml:"type"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`

	X          Track `yaml:"x,omitempty"`
	Y          Track `yaml:"y,omitempty"`
	Width      Track `yaml:"width,omitempty"`
	Height     Track `yaml:"height,omitempty"`
	Opacity    Track `yaml:"opacity,omitempty"`
	Background Track `yaml:"background,omitempty"`

	// image
	Source string `yaml:"source,omitempty"`
	Page   int    `yaml:"page,omitempty"`
	Camera Camera `yaml:"camera,omitempty"`

	// qr
	Content Track `yaml:"content,omitempty"`
	Color   Track `yaml:"color,omitempty"`
}

type Effect struct {
	Type     string `yaml:"type"`
	Factor   Track  `yaml:"factor,omitempty"`
	Strength Track  `yaml:"strength,omitempty"`
	Color    Track  `yaml:"color,omitempty"`
}

// Duration is the end of the last layer.
func (s *Scene) Duration() float64 {
	var end float64
	for _, l := range s.Layers {
		end = max(end, l.Start+l.Duration)
	}
	return end
}

// Scale stretches every time in the scene by factor.
func (s *Scene) Scale(factor float64) {
	s.Background.Scale(factor)
	for i := range s.Layers {
		l := &s.Layers[i]
		l.Start *= factor
		l.Duration *= factor
		for _, tr := range []*Track{&l.X, &l.Y, &l.Width, &l.Height, &l.Opacity, &l.Background, &l.Content, &l.Color} {
			tr.Scale(factor)
		}
		for j := range l.Camera.Shots {
			l.Camera.Shots[j].Time *= factor
		}
	}
	for i := range s.Effects {
		e := &s.Effects[i]
		e.Factor.Scale(factor)
		e.Strength.Scale(factor)
		e.Color.Scale(factor)
	}
}

func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidScene, s.Width, s.Height)
	}
	if len(s.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrInvalidScene)
	}
	for i, l := range s.Layers {
		if l.Start < 0 || l.Duration <= 0 {
			return fmt.Errorf("%w: layer %d: start %g, duration %g", ErrInvalidScene, i+1, l.Start, l.Duration)
		}
		switch l.Type {
		case LayerImage:
			if l.Source == "" {
				return fmt.Errorf("%w: layer %d: image without source", ErrInvalidScene, i+1)
			}
		case LayerQR:
			if l.Content.IsZero() {
				return fmt.Errorf("%w: layer %d: qr without content", ErrInvalidScene, i+1)
			}
		case LayerVisual:
		default:
			return fmt.Errorf("%w: layer %d: unknown type %q", ErrInvalidScene, i+1, l.Type)
		}
	}
	for i, e := range s.Effects {
		switch e.Type {
		case EffectBrightness, EffectGrayscale, EffectTint:
		default:
			return fmt.Errorf("%w: effect %d: unknown type %q", ErrInvalidScene, i+1, e.Type)
		}
	}
	return nil
}

// WriteScene writes a scene to a YAML file
func WriteScene(scene *Scene, path string) error {
	data, err := yaml.Marshal(scene)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScene reads and validates a scene from a YAML file
func ReadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, err
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}

	return &scene, nil
}
