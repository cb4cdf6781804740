// Package tensor holds the batched float64 arrays the geometry packages work
// on. An Array is a shape plus a row-major data slice; the last one or two
// axes carry the per-element components (a quaternion, a vector, a 3x3
// matrix) and every axis before them is a batch axis.
package tensor

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidInput is returned for every shape or argument violation detected
// at the entry of an operation.
var ErrInvalidInput = errors.New("invalid input")

// Array is a dense row-major array of float64 values
type Array struct {
	shape []int
	data  []float64
}

// New creates an array of the given shape. The data is copied.
func New(data []float64, shape ...int) (Array, error) {
	n, err := size(shape)
	if err != nil {
		return Array{}, err
	}
	if n != len(data) {
		return Array{}, errors.Wrapf(ErrInvalidInput, "shape %v needs %d values, got %d", shape, n, len(data))
	}
	d := make([]float64, n)
	copy(d, data)
	return Array{shape: append([]int(nil), shape...), data: d}, nil
}

// MustNew is like New but panics on error. Intended for tests and constants.
func MustNew(data []float64, shape ...int) Array {
	a, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Zeros returns a zero filled array of the given shape
func Zeros(shape ...int) Array {
	n, err := size(shape)
	if err != nil {
		panic(err)
	}
	return Array{shape: append([]int(nil), shape...), data: make([]float64, n)}
}

// FromVectors packs a list of 3-vectors into an array of shape [len(vs), 3]
func FromVectors(vs ...[3]float64) Array {
	a := Zeros(len(vs), 3)
	for i, v := range vs {
		copy(a.data[3*i:], v[:])
	}
	return a
}

// Size is the number of values an array of the given shape holds. Negative
// dimensions and shapes whose size does not fit in an int are rejected.
func Size(shape ...int) (int, error) {
	return size(shape)
}

func size(shape []int) (int, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return 0, errors.Wrapf(ErrInvalidInput, "negative dimension in shape %v", shape)
		}
		if s > 0 && n > math.MaxInt/s {
			return 0, errors.Wrapf(ErrInvalidInput, "shape %v is too large", shape)
		}
		n *= s
	}
	return n, nil
}

// Shape returns a copy of the shape
func (a Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// Rank is the number of axes
func (a Array) Rank() int {
	return len(a.shape)
}

// Len is the total number of values
func (a Array) Len() int {
	return len(a.data)
}

// Dim returns the size of axis i. Negative values count from the end.
func (a Array) Dim(i int) int {
	if i < 0 {
		i += len(a.shape)
	}
	return a.shape[i]
}

// Data returns the backing slice. Callers must not modify it; use Clone
// first when a mutable copy is needed.
func (a Array) Data() []float64 {
	return a.data
}

// Clone returns a deep copy
func (a Array) Clone() Array {
	return Array{shape: a.Shape(), data: append([]float64(nil), a.data...)}
}

// IsZero reports whether the array was never initialized
func (a Array) IsZero() bool {
	return a.shape == nil && a.data == nil
}

func (a Array) String() string {
	return fmt.Sprintf("Array%v%v", a.shape, a.data)
}

// Leading returns the batch shape in front of the given number of trailing
// component axes.
func (a Array) Leading(trailing int) []int {
	if trailing > len(a.shape) {
		return nil
	}
	return append([]int(nil), a.shape[:len(a.shape)-trailing]...)
}

// Batch is the number of elements across the leading axes
func (a Array) Batch(trailing int) int {
	n, _ := size(a.Leading(trailing))
	return n
}

// CheckTrailing verifies that the last axes of the array equal dims. The name
// is used in the error message.
func (a Array) CheckTrailing(name string, dims ...int) error {
	if len(a.shape) < len(dims) {
		return errors.Wrapf(ErrInvalidInput, "%s: shape %v has fewer than %d axes", name, a.shape, len(dims))
	}
	tail := a.shape[len(a.shape)-len(dims):]
	for i := range dims {
		if tail[i] != dims[i] {
			return errors.Wrapf(ErrInvalidInput, "%s: trailing dimensions %v, expected %v", name, tail, dims)
		}
	}
	return nil
}

// Scale multiplies every value by k and returns the result as a new array
func (a Array) Scale(k float64) Array {
	out := a.Clone()
	floats.Scale(k, out.data)
	return out
}

// Add returns a+b. Shapes must match.
func (a Array) Add(b Array) (Array, error) {
	if !ShapeEqual(a.shape, b.shape) {
		return Array{}, errors.Wrapf(ErrInvalidInput, "cannot add shapes %v and %v", a.shape, b.shape)
	}
	out := a.Clone()
	floats.Add(out.data, b.data)
	return out, nil
}

// Neg returns -a
func (a Array) Neg() Array {
	return a.Scale(-1)
}

// Slice returns the sub range [lo, hi) of the last axis
func (a Array) Slice(lo, hi int) (Array, error) {
	if len(a.shape) == 0 {
		return Array{}, errors.Wrap(ErrInvalidInput, "cannot slice a scalar")
	}
	last := a.shape[len(a.shape)-1]
	if lo < 0 || hi > last || lo > hi {
		return Array{}, errors.Wrapf(ErrInvalidInput, "slice [%d:%d] out of range for trailing dimension %d", lo, hi, last)
	}
	n := a.Batch(1)
	w := hi - lo
	out := Zeros(append(a.Leading(1), w)...)
	for i := 0; i < n; i++ {
		copy(out.data[i*w:(i+1)*w], a.data[i*last+lo:i*last+hi])
	}
	return out, nil
}

// Concat joins arrays along the last axis. All leading shapes must match.
func Concat(parts ...Array) (Array, error) {
	if len(parts) == 0 {
		return Array{}, errors.Wrap(ErrInvalidInput, "nothing to concatenate")
	}
	lead := parts[0].Leading(1)
	width := 0
	for _, p := range parts {
		if p.Rank() == 0 || !ShapeEqual(p.Leading(1), lead) {
			return Array{}, errors.Wrapf(ErrInvalidInput, "cannot concatenate shape %v with leading shape %v", p.shape, lead)
		}
		width += p.Dim(-1)
	}
	n := parts[0].Batch(1)
	out := Zeros(append(lead, width)...)
	for i := 0; i < n; i++ {
		off := i * width
		for _, p := range parts {
			w := p.Dim(-1)
			copy(out.data[off:off+w], p.data[i*w:(i+1)*w])
			off += w
		}
	}
	return out, nil
}

// Stack interleaves arrays of identical shape into a new trailing axis
func Stack(parts ...Array) (Array, error) {
	if len(parts) == 0 {
		return Array{}, errors.Wrap(ErrInvalidInput, "nothing to stack")
	}
	shape := parts[0].shape
	for _, p := range parts[1:] {
		if !ShapeEqual(p.shape, shape) {
			return Array{}, errors.Wrapf(ErrInvalidInput, "cannot stack shapes %v and %v", shape, p.shape)
		}
	}
	k := len(parts)
	out := Zeros(append(append([]int(nil), shape...), k)...)
	for i := range parts[0].data {
		for j, p := range parts {
			out.data[i*k+j] = p.data[i]
		}
	}
	return out, nil
}

// Unstack splits the last axis into separate arrays
func (a Array) Unstack() []Array {
	k := a.Dim(-1)
	n := a.Batch(1)
	lead := a.Leading(1)
	out := make([]Array, k)
	for j := range out {
		out[j] = Zeros(lead...)
		for i := 0; i < n; i++ {
			out[j].data[i] = a.data[i*k+j]
		}
	}
	return out
}

// NormLast returns the euclidean norm over the last axis
func (a Array) NormLast() Array {
	k := a.Dim(-1)
	n := a.Batch(1)
	out := Zeros(a.Leading(1)...)
	for i := 0; i < n; i++ {
		out.data[i] = floats.Norm(a.data[i*k:(i+1)*k], 2)
	}
	return out
}

// ShapeEqual compares two shapes
func ShapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether shape starts with prefix
func HasPrefix(shape, prefix []int) bool {
	return len(shape) >= len(prefix) && ShapeEqual(shape[:len(prefix)], prefix)
}

// EqualApprox compares shapes exactly and values within tol
func EqualApprox(a, b Array, tol float64) bool {
	return ShapeEqual(a.shape, b.shape) && floats.EqualApprox(a.data, b.data, tol)
}
