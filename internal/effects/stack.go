package effects

import (
	"image"

	"github.com/ivlev/reel/internal/layer"
	"github.com/ivlev/reel/internal/property"
)

// Stack applies its effects in order as one effect.
type Stack struct {
	Base
	effects []Effect
}

func NewStack(effects ...Effect) *Stack {
	return &Stack{Base: newBase(nil), effects: effects}
}

func (s *Stack) Attach(b property.Binding) {
	s.Base.Attach(b)
	for _, e := range s.effects {
		e.Attach(b)
	}
}

func (s *Stack) Detach() {
	s.Base.Detach()
	for _, e := range s.effects {
		e.Detach()
	}
}

func (s *Stack) Apply(target *image.RGBA, f layer.Frame) error {
	for _, e := range s.effects {
		if err := e.Apply(target, f); err != nil {
			return err
		}
	}
	return nil
}
