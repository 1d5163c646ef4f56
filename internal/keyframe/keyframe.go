// Package keyframe models animated values: time-ordered samples that are
// interpolated into a value at any query time.
package keyframe

import (
	"fmt"
	"math"
	"sort"
)

// Sample is one point of an animated value. Interp controls how the value
// travels from this sample to the next one; nil means Linear.
type Sample struct {
	Time   float64
	Value  any
	Interp Interpolator
}

// At is shorthand for a Sample with an optional interpolator.
func At(t float64, v any, interp ...Interpolator) Sample {
	s := Sample{Time: t, Value: v}
	if len(interp) > 0 {
		s.Interp = interp[0]
	}
	return s
}

// Value is an animated value.
type Value struct {
	Samples []Sample

	// InterpolationKeys limits record interpolation to these fields.
	InterpolationKeys []string
}

// New creates a Value with its samples ordered by time.
func New(samples ...Sample) *Value {
	s := make([]Sample, len(samples))
	copy(s, samples)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time < s[j].Time
	})
	return &Value{Samples: s}
}

// Evaluate returns the value at time t. Pass math.NaN() for an unknown time.
//
// Before the first sample it fails, at or after the last sample it holds the
// last value. Values that are neither numbers nor records are never blended:
// the value of the sample that starts the interval is returned.
func (v *Value) Evaluate(t float64) (any, error) {
	if v == nil || len(v.Samples) == 0 {
		return nil, ErrEmptySequence
	}
	if math.IsNaN(t) {
		return nil, ErrTimeRequired
	}
	if first := v.Samples[0].Time; t < first {
		return nil, fmt.Errorf("%w: %g < %g", ErrBeforeFirstSample, t, first)
	}

	last := len(v.Samples) - 1
	for i := 0; i < last; i++ {
		start, end := v.Samples[i], v.Samples[i+1]
		if t < start.Time || t >= end.Time {
			continue
		}
		if !sameKind(start.Value, end.Value) {
			return nil, fmt.Errorf("%w: %T at %g and %T at %g",
				ErrTypeMismatch, start.Value, start.Time, end.Value, end.Time)
		}
		if !Interpolable(start.Value) {
			return start.Value, nil
		}
		interp := start.Interp
		if interp == nil {
			interp = Linear
		}
		progress := (t - start.Time) / (end.Time - start.Time)
		return interp(start.Value, end.Value, progress, v.InterpolationKeys)
	}
	return v.Samples[last].Value, nil
}

// StartTime returns the time of the first sample.
func (v *Value) StartTime() float64 {
	if v == nil || len(v.Samples) == 0 {
		return 0
	}
	return v.Samples[0].Time
}

// EndTime returns the time of the last sample.
func (v *Value) EndTime() float64 {
	if v == nil || len(v.Samples) == 0 {
		return 0
	}
	return v.Samples[len(v.Samples)-1].Time
}
