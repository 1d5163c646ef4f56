package property

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ivlev/reel/internal/keyframe"
	"github.com/lucasb-eyer/go-colorful"
)

type testElement struct {
	Node
}

func newTestElement(owner ID, props Bag) *testElement {
	el := &testElement{Node: NewNode(props)}
	el.Bind(Binding{Owner: owner})
	return el
}

func TestResolveForms(t *testing.T) {
	calls := 0
	el := newTestElement(NewID(), Bag{
		"literal": Literal{V: 3.0},
		"raw":     "plain",
		"kf":      Animated(keyframe.At(0, 0.0), keyframe.At(10, 100.0)),
		"kfPtr":   keyframe.New(keyframe.At(0, 1.0), keyframe.At(2, 3.0)),
		"computed": Computed(func(el Element, t float64) (any, error) {
			calls++
			return t * 2, nil
		}),
		"border": Bag{"width": 4},
	})

	tests := []struct {
		path string
		want any
	}{
		{"literal", 3.0},
		{"raw", "plain"},
		{"kf", 50.0},
		{"kfPtr", 3.0},
		{"computed", 10.0},
		{"border.width", 4},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Resolve(nil, el, tt.path, 5)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if calls != 1 {
		t.Errorf("computed property called %d times, want 1", calls)
	}
}

func TestResolveCachesPerFrame(t *testing.T) {
	owner := NewID()
	cache := NewCache()
	el := newTestElement(owner, Bag{
		"x": Animated(keyframe.At(0, 0.0), keyframe.At(10, 10.0)),
	})

	first, err := Resolve(cache, el, "x", 2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := Resolve(cache, el, "x", 8)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first != 2.0 || second != 2.0 {
		t.Errorf("expected cached 2 twice, got %v and %v", first, second)
	}
	if cache.Len(owner) != 1 {
		t.Errorf("cache holds %d entries, want 1", cache.Len(owner))
	}

	cache.Clear(owner)
	if cache.Len(owner) != 0 {
		t.Fatalf("cache not cleared")
	}
	third, _ := Resolve(cache, el, "x", 8)
	if third != 8.0 {
		t.Errorf("after Clear got %v, want 8", third)
	}
}

func TestResolveCacheScopes(t *testing.T) {
	cache := NewCache()
	a := newTestElement(NewID(), Bag{"v": Literal{V: 1}})
	b := newTestElement(NewID(), Bag{"v": Literal{V: 2}})

	Resolve(cache, a, "v", 0)
	Resolve(cache, b, "v", 0)
	cache.Clear(a.Owner())

	if cache.Len(a.Owner()) != 0 || cache.Len(b.Owner()) != 1 {
		t.Errorf("Clear touched the wrong scope: a=%d b=%d", cache.Len(a.Owner()), cache.Len(b.Owner()))
	}
}

func TestResolveDetachedIsNotCached(t *testing.T) {
	cache := NewCache()
	n := 0
	el := newTestElement(0, Bag{"n": Computed(func(Element, float64) (any, error) {
		n++
		return n, nil
	})})

	Resolve(cache, el, "n", 0)
	got, _ := Resolve(cache, el, "n", 0)
	if got != 2 {
		t.Errorf("detached element was cached: got %v", got)
	}
}

func TestResolveFilter(t *testing.T) {
	cache := NewCache()
	el := newTestElement(NewID(), Bag{"opacity": Literal{V: 1.5}})
	el.SetFilter("opacity", func(v any) any {
		if f := v.(float64); f > 1 {
			return 1.0
		}
		return v
	})

	got, err := Resolve(cache, el, "opacity", 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("filtered value = %v, want 1", got)
	}
	cached, _ := Resolve(cache, el, "opacity", 0)
	if cached != 1.0 {
		t.Errorf("cached value = %v, want filtered 1", cached)
	}
}

func TestResolveErrors(t *testing.T) {
	el := newTestElement(NewID(), Bag{
		"x":            Animated(keyframe.At(1, 0.0)),
		"n":            Literal{V: "text"},
		"bad":          Computed(func(Element, float64) (any, error) { return nil, errors.New("boom") }),
		"nilKeyframed": Keyframed{},
		"nilValue":     (*keyframe.Value)(nil),
	})

	for _, path := range []string{"nilKeyframed", "nilValue"} {
		if _, err := Resolve(nil, el, path, 0); !errors.Is(err, keyframe.ErrEmptySequence) {
			t.Errorf("Resolve(%q) = %v, want ErrEmptySequence", path, err)
		}
	}

	if _, err := Resolve(nil, el, "missing.path", 0); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("expected ErrUnknownProperty, got %v", err)
	}
	if _, err := Resolve(nil, el, "x", 0); !errors.Is(err, keyframe.ErrBeforeFirstSample) {
		t.Errorf("expected ErrBeforeFirstSample, got %v", err)
	}
	if _, err := Float(nil, el, "n", 0); !errors.Is(err, ErrWrongType) {
		t.Errorf("expected ErrWrongType, got %v", err)
	}
	if _, err := Resolve(nil, el, "bad", 0); err == nil {
		t.Error("expected computed error to propagate")
	}
}

func TestTypedHelpers(t *testing.T) {
	el := newTestElement(0, Bag{
		"hex":    "#ff0000",
		"rgba":   color.RGBA{G: 255, A: 255},
		"nil":    nil,
		"lab":    colorful.Color{R: 2, G: 0.5, B: -1},
		"count":  uint8(7),
		"label":  "hello",
		"number": 1.0,
	})

	if c, err := Color(nil, el, "hex", 0); err != nil || c.(colorful.Color) != (colorful.Color{R: 1}) {
		t.Errorf("Color(hex) = %v, %v", c, err)
	}
	if c, err := Color(nil, el, "rgba", 0); err != nil || c != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("Color(rgba) = %v, %v", c, err)
	}
	if c, err := Color(nil, el, "nil", 0); err != nil || c != nil {
		t.Errorf("Color(nil) = %v, %v", c, err)
	}
	if c, _ := Color(nil, el, "lab", 0); c.(colorful.Color) != (colorful.Color{R: 1, G: 0.5, B: 0}) {
		t.Errorf("Color(lab) not clamped: %v", c)
	}
	if f, err := Float(nil, el, "count", 0); err != nil || f != 7 {
		t.Errorf("Float(count) = %v, %v", f, err)
	}
	if s, err := String(nil, el, "label", 0); err != nil || s != "hello" {
		t.Errorf("String(label) = %v, %v", s, err)
	}
	if _, err := String(nil, el, "number", 0); !errors.Is(err, ErrWrongType) {
		t.Errorf("expected ErrWrongType, got %v", err)
	}
}

func TestNodeSetNotifiesOnce(t *testing.T) {
	el := newTestElement(0, nil)
	var paths []string
	el.Bind(Binding{Owner: NewID(), OnChange: func(path string, v any) {
		paths = append(paths, path)
	}})

	el.Set("border.color", "#fff")
	el.Set("x", 1.0)

	if len(paths) != 2 || paths[0] != "border.color" || paths[1] != "x" {
		t.Errorf("unexpected notifications: %v", paths)
	}
	if v, _ := el.Properties().Lookup("border.color"); v != "#fff" {
		t.Errorf("nested set not stored: %v", v)
	}
}
