package affine

import (
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/rotation"
	"github.com/roboticeyes/quataffine/tensor"
)

// ApplyToPoint maps points from the local frame into world coordinates:
// rotation·p + translation.
//
// point must have the shape leading ++ E ++ [3] where leading is the frame's
// leading shape and E holds extraDims axes. Every frame is broadcast over its
// E block, which is how several points attached to one frame are moved at
// once.
func (f *Frame) ApplyToPoint(point tensor.Array, extraDims int) (tensor.Array, error) {
	out, err := f.applyRotation(point, extraDims, false)
	if err != nil {
		return tensor.Array{}, err
	}
	f.eachPoint(out, extraDims, func(p []float64, t []float64) {
		p[0] += t[0]
		p[1] += t[1]
		p[2] += t[2]
	})
	return out, nil
}

// InvertPoint is the inverse of ApplyToPoint: rotationᵗ·(p - translation).
// The transpose stands in for the inverse because rotations are orthonormal.
func (f *Frame) InvertPoint(point tensor.Array, extraDims int) (tensor.Array, error) {
	if err := f.checkPoints(point, extraDims); err != nil {
		return tensor.Array{}, err
	}
	shifted := point.Clone()
	f.eachPoint(shifted, extraDims, func(p []float64, t []float64) {
		p[0] -= t[0]
		p[1] -= t[1]
		p[2] -= t[2]
	})
	return f.applyRotation(shifted, extraDims, true)
}

// ApplyToComponents is ApplyToPoint for points given as separate x, y and z
// arrays of shape leading ++ E.
func (f *Frame) ApplyToComponents(xyz [3]tensor.Array, extraDims int) ([3]tensor.Array, error) {
	return f.components(xyz, extraDims, f.ApplyToPoint)
}

// InvertComponents is InvertPoint for points given as separate x, y and z
// arrays.
func (f *Frame) InvertComponents(xyz [3]tensor.Array, extraDims int) ([3]tensor.Array, error) {
	return f.components(xyz, extraDims, f.InvertPoint)
}

func (f *Frame) components(xyz [3]tensor.Array, extraDims int,
	fn func(tensor.Array, int) (tensor.Array, error)) ([3]tensor.Array, error) {

	var out [3]tensor.Array
	stacked, err := tensor.Stack(xyz[0], xyz[1], xyz[2])
	if err != nil {
		return out, err
	}
	res, err := fn(stacked, extraDims)
	if err != nil {
		return out, err
	}
	copy(out[:], res.Unstack())
	return out, nil
}

func (f *Frame) checkPoints(point tensor.Array, extraDims int) error {
	if extraDims < 0 {
		return errors.Wrapf(tensor.ErrInvalidInput, "extra dimensions must not be negative, got %d", extraDims)
	}
	if err := point.CheckTrailing("point", 3); err != nil {
		return err
	}
	lead := f.LeadingShape()
	shape := point.Shape()
	if len(shape) != len(lead)+extraDims+1 || !tensor.HasPrefix(shape, lead) {
		return errors.Wrapf(tensor.ErrInvalidInput,
			"point shape %v does not match frame leading shape %v with %d extra dimensions", shape, lead, extraDims)
	}
	return nil
}

// eachPoint calls fn for every point of p together with the translation of
// the frame it belongs to. p is modified in place, so it must be owned by the
// caller.
func (f *Frame) eachPoint(p tensor.Array, extraDims int, fn func(p, t []float64)) {
	n := f.Len()
	per := p.Batch(1) / max(n, 1)
	pd := p.Data()
	td := f.translation.Data()
	for i := 0; i < n; i++ {
		t := td[3*i : 3*i+3]
		for j := 0; j < per; j++ {
			off := 3 * (i*per + j)
			fn(pd[off:off+3], t)
		}
	}
}

// applyRotation returns rotation·p, or rotationᵗ·p when inverse is set, for
// points laid out as described on ApplyToPoint.
func (f *Frame) applyRotation(point tensor.Array, extraDims int, inverse bool) (tensor.Array, error) {
	if err := f.checkPoints(point, extraDims); err != nil {
		return tensor.Array{}, err
	}
	out := point.Clone()
	n := f.Len()
	per := point.Batch(1) / max(n, 1)
	pd := out.Data()
	rd := f.rotation.Data()
	for i := 0; i < n; i++ {
		var r rotation.Matrix
		copy(r[:], rd[9*i:9*i+9])
		for j := 0; j < per; j++ {
			off := 3 * (i*per + j)
			v := [3]float64{pd[off], pd[off+1], pd[off+2]}
			if inverse {
				v = rotation.ApplyInverseRotToVec(r, v)
			} else {
				v = rotation.ApplyRotToVec(r, v)
			}
			copy(pd[off:off+3], v[:])
		}
	}
	return out, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
