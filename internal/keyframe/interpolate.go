package keyframe

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"
)

// Interpolator blends a into b at progress in [0, 1]. keys restricts which
// fields of a record are interpolated; nil means every field of a.
type Interpolator func(a, b any, progress float64, keys []string) (any, error)

// Linear blends numbers as (1-p)*a + p*b.
func Linear(a, b any, progress float64, keys []string) (any, error) {
	return mix(a, b, progress, keys, func(x, y, p float64) float64 {
		return (1-p)*x + p*y
	})
}

// Cosine remaps progress through cos(π/2·p) before blending.
func Cosine(a, b any, progress float64, keys []string) (any, error) {
	return mix(a, b, progress, keys, func(x, y, p float64) float64 {
		switch {
		case p <= 0:
			return x
		case p >= 1:
			return y
		}
		c := math.Cos(math.Pi / 2 * p)
		return c*x + (1-c)*y
	})
}

// Step never blends and always holds a.
func Step(a, b any, _ float64, _ []string) (any, error) {
	if !sameKind(a, b) {
		return nil, fmt.Errorf("%w: %T and %T", ErrTypeMismatch, a, b)
	}
	return a, nil
}

// Eased returns a linear interpolator whose progress is first passed
// through fn, typically one of the github.com/fogleman/ease curves.
func Eased(fn func(float64) float64) Interpolator {
	return func(a, b any, progress float64, keys []string) (any, error) {
		return Linear(a, b, fn(progress), keys)
	}
}

var (
	EaseInOutQuad  = Eased(ease.InOutQuad)
	EaseInOutCubic = Eased(ease.InOutCubic)
	EaseOutQuad    = Eased(ease.OutQuad)
	EaseInOutSine  = Eased(ease.InOutSine)
)

// Hcl blends colorful.Color values through the HCL color space, which keeps
// hue transitions perceptually even. Other values fall back to Linear.
func Hcl(a, b any, progress float64, keys []string) (any, error) {
	ca, okA := a.(colorful.Color)
	cb, okB := b.(colorful.Color)
	if !okA || !okB {
		return Linear(a, b, progress, keys)
	}
	return ca.BlendHcl(cb, progress).Clamped(), nil
}

// Named looks up an interpolator by the name used in scene files.
func Named(name string) (Interpolator, error) {
	switch name {
	case "", "linear":
		return Linear, nil
	case "cosine":
		return Cosine, nil
	case "step":
		return Step, nil
	case "hcl":
		return Hcl, nil
	case "ease-in-out-quad":
		return EaseInOutQuad, nil
	case "ease-in-out-cubic":
		return EaseInOutCubic, nil
	case "ease-out-quad":
		return EaseOutQuad, nil
	case "ease-in-out-sine":
		return EaseInOutSine, nil
	}
	return nil, fmt.Errorf("unknown interpolation %q", name)
}

type leafFunc func(x, y, p float64) float64

func mix(a, b any, p float64, keys []string, leaf leafFunc) (any, error) {
	if !sameKind(a, b) {
		return nil, fmt.Errorf("%w: %T and %T", ErrTypeMismatch, a, b)
	}
	switch kindOf(a) {
	case kindNumber:
		return leaf(toFloat(reflect.ValueOf(a)), toFloat(reflect.ValueOf(b)), p), nil
	case kindRecord:
		return mixRecord(reflect.ValueOf(a), reflect.ValueOf(b), p, keys, leaf)
	}
	return a, nil
}

// mixRecord builds a new record of the operands' type holding only the
// fields present on both. Nested fields recurse with no key restriction.
func mixRecord(a, b reflect.Value, p float64, keys []string, leaf leafFunc) (any, error) {
	if a.Type() != b.Type() {
		return nil, fmt.Errorf("%w: %s and %s", ErrShapeMismatch, a.Type(), b.Type())
	}

	if a.Kind() == reflect.Map {
		out := reflect.MakeMapWithSize(a.Type(), a.Len())
		for _, name := range mapKeys(a, keys) {
			k := reflect.ValueOf(name).Convert(a.Type().Key())
			x, y := a.MapIndex(k), b.MapIndex(k)
			if !x.IsValid() || !y.IsValid() {
				continue
			}
			v, err := mix(x.Interface(), y.Interface(), p, nil, leaf)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			out.SetMapIndex(k, valueFor(v, a.Type().Elem()))
		}
		return out.Interface(), nil
	}

	t := a.Type()
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || (keys != nil && !contains(keys, f.Name)) {
			continue
		}
		v, err := mix(a.Field(i).Interface(), b.Field(i).Interface(), p, nil, leaf)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out.Field(i).Set(valueFor(v, f.Type))
	}
	return out.Interface(), nil
}

func mapKeys(m reflect.Value, keys []string) []string {
	if keys != nil {
		return keys
	}
	names := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
