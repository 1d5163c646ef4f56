package config

import (
	"fmt"

	"github.com/ivlev/reel/internal/director"
	"github.com/ivlev/reel/internal/keyframe"
	"github.com/ivlev/reel/internal/property"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Key is one keyframe of a Track.
type Key struct {
	Time  float64 `yaml:"time"`
	Value any     `yaml:"value"`
	Ease  string  `yaml:"ease,omitempty"`
}

// Track is a property in a scene file: either a plain value or a list of
// keys.
//
//	opacity: 0.5
//	opacity:
//	  - {time: 0, value: 0}
//	  - {time: 1, value: 1, ease: ease-in-out-quad}
type Track struct {
	Value any
	Keys  []Key
}

// Const is a Track holding a plain value.
func Const(v any) Track {
	return Track{Value: v}
}

func (t *Track) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		t.Value = nil
		return n.Decode(&t.Keys)
	}
	t.Keys = nil
	return n.Decode(&t.Value)
}

func (t Track) MarshalYAML() (any, error) {
	if len(t.Keys) > 0 {
		return t.Keys, nil
	}
	return t.Value, nil
}

func (t Track) IsZero() bool {
	return t.Value == nil && len(t.Keys) == 0
}

// Property converts the track into a layer property.
func (t Track) Property() (property.Property, error) {
	return t.property(func(v any) (any, error) { return v, nil }, keyframe.Linear)
}

// ColorProperty is Property for colors: hex strings are parsed and keys
// blend in HCL space unless an ease is named.
func (t Track) ColorProperty() (property.Property, error) {
	return t.property(parseColor, keyframe.Hcl)
}

func (t Track) property(conv func(any) (any, error), def keyframe.Interpolator) (property.Property, error) {
	if len(t.Keys) == 0 {
		v, err := conv(t.Value)
		if err != nil {
			return nil, err
		}
		return property.Literal{V: v}, nil
	}

	samples := make([]keyframe.Sample, len(t.Keys))
	for i, k := range t.Keys {
		v, err := conv(k.Value)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
		interp := def
		if k.Ease != "" {
			if interp, err = keyframe.Named(k.Ease); err != nil {
				return nil, fmt.Errorf("key %d: %w", i, err)
			}
		}
		samples[i] = keyframe.At(k.Time, v, interp)
	}
	return property.Animated(samples...), nil
}

// Scale stretches key times by factor.
func (t *Track) Scale(factor float64) {
	for i := range t.Keys {
		t.Keys[i].Time *= factor
	}
}

func parseColor(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

// Camera is an image layer's camera: "auto" for a detected tour or a list
// of shots.
type Camera struct {
	Auto  bool
	Shots []director.Shot
}

const autoCamera = "auto"

func (c *Camera) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		if s != autoCamera {
			return fmt.Errorf("line %d: camera must be %q or a list of shots", n.Line, autoCamera)
		}
		*c = Camera{Auto: true}
		return nil
	}
	c.Auto = false
	return n.Decode(&c.Shots)
}

func (c Camera) MarshalYAML() (any, error) {
	if c.Auto {
		return autoCamera, nil
	}
	return c.Shots, nil
}

func (c Camera) IsZero() bool {
	return !c.Auto && len(c.Shots) == 0
}
