package engine

import (
	"fmt"

	"github.com/ivlev/reel/internal/config"
	"github.com/ivlev/reel/internal/effects"
	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/movie"
	"github.com/ivlev/reel/internal/property"
	"github.com/ivlev/reel/internal/surface"
)

// Build creates the movie described by the scene. Image sources must be
// loaded first.
func (p *Project) Build(s surface.Surface, sched movie.Scheduler) (*movie.Movie, error) {
	var background any
	if !p.Scene.Background.IsZero() {
		bg, err := p.Scene.Background.ColorProperty()
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		background = bg
	}

	m, err := movie.New(movie.Options{
		Surface:    s,
		Scheduler:  sched,
		Encoder:    p.Encoder,
		Background: background,
		Repeat:     p.Scene.Repeat,
	})
	if err != nil {
		return nil, err
	}

	for i, def := range p.Scene.Layers {
		l, err := p.buildLayer(def)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		if err := m.AddLayer(l); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
	}
	for i, def := range p.Scene.Effects {
		e, err := buildEffect(def)
		if err != nil {
			return nil, fmt.Errorf("effect %d: %w", i+1, err)
		}
		if err := m.AddEffect(e); err != nil {
			return nil, fmt.Errorf("effect %d: %w", i+1, err)
		}
	}
	return m, nil
}

func (p *Project) buildLayer(def config.Layer) (layer.Layer, error) {
	box := layer.Box{Width: float64(p.Scene.Width), Height: float64(p.Scene.Height)}

	var l layer.Layer
	var visual *layer.Visual
	switch def.Type {
	case config.LayerImage:
		page, err := p.page(def.Source, def.Page)
		if err != nil {
			return nil, err
		}
		img := layer.NewImage(def.Start, def.Duration, box, page)
		if len(def.Camera.Shots) > 0 {
			img.Properties()["camera"] = property.Keyframed{Value: p.Director.CameraPath(def.Camera.Shots)}
		} else if def.Camera.Auto {
			path, _, err := p.Director.Tour(page, def.Duration)
			if err != nil {
				return nil, err
			}
			img.Properties()["camera"] = property.Keyframed{Value: path}
		}
		l, visual = img, img.Visual

	case config.LayerQR:
		content, err := def.Content.Property()
		if err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
		qr := layer.NewQR(def.Start, def.Duration, box, content)
		if err := setColor(qr.Properties(), "color", def.Color); err != nil {
			return nil, err
		}
		l, visual = qr, qr.Visual

	case config.LayerVisual:
		visual = layer.NewVisual(def.Start, def.Duration, box)
		l = visual

	default:
		return nil, fmt.Errorf("%w: unknown layer type %q", config.ErrInvalidScene, def.Type)
	}

	props := visual.Properties()
	for name, tr := range map[string]config.Track{
		"x":       def.X,
		"y":       def.Y,
		"width":   def.Width,
		"height":  def.Height,
		"opacity": def.Opacity,
	} {
		if err := set(props, name, tr); err != nil {
			return nil, err
		}
	}
	if err := setColor(props, "background", def.Background); err != nil {
		return nil, err
	}
	return l, nil
}

func buildEffect(def config.Effect) (effects.Effect, error) {
	switch def.Type {
	case config.EffectBrightness:
		e := effects.NewBrightness(1.0)
		return e, set(e.Properties(), "factor", def.Factor)
	case config.EffectGrayscale:
		e := effects.NewGrayscale(1.0)
		return e, set(e.Properties(), "strength", def.Strength)
	case config.EffectTint:
		e := effects.NewTint("#ffffff", 0.5)
		if err := setColor(e.Properties(), "color", def.Color); err != nil {
			return nil, err
		}
		return e, set(e.Properties(), "strength", def.Strength)
	}
	return nil, fmt.Errorf("%w: unknown effect type %q", config.ErrInvalidScene, def.Type)
}

// set overrides a default property when the track is given.
func set(props property.Bag, name string, tr config.Track) error {
	if tr.IsZero() {
		return nil
	}
	p, err := tr.Property()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	props[name] = p
	return nil
}

func setColor(props property.Bag, name string, tr config.Track) error {
	if tr.IsZero() {
		return nil
	}
	p, err := tr.ColorProperty()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	props[name] = p
	return nil
}
