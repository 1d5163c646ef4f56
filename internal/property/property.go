// Package property resolves named, possibly animated properties of timeline
// elements and memoizes the results for the duration of one frame.
package property

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ivlev/reel/internal/keyframe"
)

var (
	ErrUnknownProperty = errors.New("property: unknown property")
	ErrWrongType       = errors.New("property: wrong value type")
)

// ID is a stable handle for an element or a timeline. Zero means none.
type ID uint64

var lastID atomic.Uint64

// NewID returns a process-unique handle.
func NewID() ID {
	return ID(lastID.Add(1))
}

// Property is the closed set of raw property forms: Literal, Keyframed and
// Computed.
type Property interface {
	isProperty()
}

// Literal is a constant value.
type Literal struct {
	V any
}

// Keyframed is a value animated by keyframes.
type Keyframed struct {
	Value *keyframe.Value
}

// Computed produces the value from the element and the query time.
type Computed func(el Element, t float64) (any, error)

func (Literal) isProperty()   {}
func (Keyframed) isProperty() {}
func (Computed) isProperty()  {}

// Animated wraps samples into a Keyframed property.
func Animated(samples ...keyframe.Sample) Keyframed {
	return Keyframed{Value: keyframe.New(samples...)}
}

// Filter post-processes a resolved value.
type Filter func(v any) any

// Element is anything carrying resolvable properties.
type Element interface {
	ID() ID
	// Owner is the timeline the element belongs to, zero when detached.
	Owner() ID
	Properties() Bag
}

// Filterer is implemented by elements that post-process some properties.
type Filterer interface {
	PropertyFilter(path string) Filter
}

// Bag holds an element's raw properties. Nested bags are addressed with
// dotted paths such as "border.color".
type Bag map[string]any

// Lookup walks a dotted path.
func (b Bag) Lookup(path string) (any, error) {
	parts := strings.Split(path, ".")
	var cur any = b
	for i, part := range parts {
		var (
			v  any
			ok bool
		)
		switch m := cur.(type) {
		case Bag:
			v, ok = m[part]
		case map[string]any:
			v, ok = m[part]
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, strings.Join(parts[:i+1], "."))
		}
		cur = v
	}
	return cur, nil
}

// Set stores v at a dotted path, creating intermediate bags.
func (b Bag) Set(path string, v any) {
	parts := strings.Split(path, ".")
	cur := b
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(Bag)
		if !ok {
			if m, isMap := cur[part].(map[string]any); isMap {
				next = Bag(m)
			} else {
				next = Bag{}
			}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}
