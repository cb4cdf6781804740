package affine

import "github.com/roboticeyes/quataffine/tensor"

// Detacher severs the differentiation history of an array while keeping its
// values. Environments that track gradients plug their own implementation in
// through WithDetacher; everything else uses NoopDetacher.
type Detacher interface {
	Detach(a tensor.Array) tensor.Array
}

// DetacherFunc adapts a plain function to the Detacher interface
type DetacherFunc func(a tensor.Array) tensor.Array

// Detach calls f(a)
func (f DetacherFunc) Detach(a tensor.Array) tensor.Array {
	return f(a)
}

// NoopDetacher returns an independent copy of its input
type NoopDetacher struct{}

// Detach returns a copy of a
func (NoopDetacher) Detach(a tensor.Array) tensor.Array {
	return a.Clone()
}
