package keyframe

import "errors"

var (
	ErrEmptySequence     = errors.New("keyframe: empty sequence")
	ErrTimeRequired      = errors.New("keyframe: time is required")
	ErrBeforeFirstSample = errors.New("keyframe: no sample before time")
	ErrTypeMismatch      = errors.New("keyframe: type mismatch")
	ErrShapeMismatch     = errors.New("keyframe: shape mismatch")
)
