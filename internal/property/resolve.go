package property

import (
	"fmt"
	"image/color"
	"reflect"

	"github.com/ivlev/reel/internal/keyframe"
	"github.com/lucasb-eyer/go-colorful"
)

// Resolve returns the value of the property at path for time t.
//
// Within one frame the first resolution of (element, path) wins: later calls
// return the cached value even when asked for another time. The owner must
// clear its scope with Cache.Clear before resolving a new frame. Elements
// without an owner, or a nil cache, are resolved without caching.
func Resolve(c *Cache, el Element, path string, t float64) (any, error) {
	owner := el.Owner()
	caching := c != nil && owner != 0
	if caching {
		if v, ok := c.get(owner, el.ID(), path); ok {
			return v, nil
		}
	}

	raw, err := el.Properties().Lookup(path)
	if err != nil {
		return nil, err
	}

	var v any
	switch p := raw.(type) {
	case Literal:
		v = p.V
	case Keyframed:
		v, err = p.Value.Evaluate(t)
	case *keyframe.Value:
		v, err = p.Evaluate(t)
	case Computed:
		v, err = p(el, t)
	case func(Element, float64) (any, error):
		v, err = p(el, t)
	default:
		v = raw
	}
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", path, err)
	}

	if f, ok := el.(Filterer); ok {
		if filter := f.PropertyFilter(path); filter != nil {
			v = filter(v)
		}
	}

	if caching {
		c.put(owner, el.ID(), path, v)
	}
	return v, nil
}

// Float resolves a numeric property.
func Float(c *Cache, el Element, path string, t float64) (float64, error) {
	v, err := Resolve(c, el, path, t)
	if err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("%w: %q is %T, want a number", ErrWrongType, path, v)
}

// String resolves a text property.
func String(c *Cache, el Element, path string, t float64) (string, error) {
	v, err := Resolve(c, el, path, t)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("%w: %q is %T, want a string", ErrWrongType, path, v)
}

// Color resolves a color property. Hex strings are parsed with go-colorful.
// A nil value resolves to a nil color.
func Color(c *Cache, el Element, path string, t float64) (color.Color, error) {
	v, err := Resolve(c, el, path, t)
	if err != nil {
		return nil, err
	}
	switch col := v.(type) {
	case nil:
		return nil, nil
	case colorful.Color:
		return col.Clamped(), nil
	case color.Color:
		return col, nil
	case string:
		parsed, err := colorful.Hex(col)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", path, err)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("%w: %q is %T, want a color", ErrWrongType, path, v)
}
