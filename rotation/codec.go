// Package rotation converts between unit quaternions and 3x3 rotation
// matrices.
//
// Quaternions are ordered (w, x, y, z). A quaternion and its negation describe
// the same rotation; nothing in this package pins the sign, so comparisons
// should be made on the rotation a quaternion induces and not on its raw
// components.
package rotation

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/roboticeyes/quataffine/tensor"
)

func components(q quat.Number) [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

func number(c []float64) quat.Number {
	return quat.Number{Real: c[0], Imag: c[1], Jmag: c[2], Kmag: c[3]}
}

// QuatToRotMatrix maps a quaternion to its rotation matrix by contracting the
// coefficient table against q⊗q. The quaternion must be normalized; for any
// other length the result is scaled by |q|² and is not a rotation.
func QuatToRotMatrix(q quat.Number) Matrix {
	c := components(q)
	var m Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			w := c[i] * c[j]
			for e := range m {
				m[e] += quatToRot[i][j][e] * w
			}
		}
	}
	return m
}

// MultiplyByVec returns the Hamilton product q·(0, v). The pure-vector
// quaternion (0, v) is not normalized, so the result is a first-order
// increment to be added to q rather than a rotation on its own.
func MultiplyByVec(q quat.Number, v [3]float64) quat.Number {
	c := components(q)
	var out [4]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			w := c[i] * v[j]
			for k := 0; k < 4; k++ {
				out[k] += quatMultiplyByVec[i][j][k] * w
			}
		}
	}
	return number(out[:])
}

// QuatToRot converts a batch of quaternions with trailing dimension 4 into
// rotation matrices with trailing dimensions 3x3.
func QuatToRot(q tensor.Array) (tensor.Array, error) {
	if err := q.CheckTrailing("quaternion", 4); err != nil {
		return tensor.Array{}, err
	}
	n := q.Batch(1)
	src := q.Data()
	out := make([]float64, 9*n)
	for i := 0; i < n; i++ {
		m := QuatToRotMatrix(number(src[4*i : 4*i+4]))
		copy(out[9*i:], m[:])
	}
	return tensor.New(out, append(q.Leading(1), 3, 3)...)
}

// QuatMultiplyByVec computes q·(0, v) element-wise. q has trailing dimension
// 4, v trailing dimension 3 and both must share their leading shape. The
// result has trailing dimension 4.
func QuatMultiplyByVec(q, v tensor.Array) (tensor.Array, error) {
	if err := q.CheckTrailing("quaternion", 4); err != nil {
		return tensor.Array{}, err
	}
	if err := v.CheckTrailing("vector", 3); err != nil {
		return tensor.Array{}, err
	}
	if !tensor.ShapeEqual(q.Leading(1), v.Leading(1)) {
		return tensor.Array{}, errors.Wrapf(tensor.ErrInvalidInput,
			"quaternion leading shape %v does not match vector leading shape %v", q.Leading(1), v.Leading(1))
	}
	n := q.Batch(1)
	qs, vs := q.Data(), v.Data()
	out := make([]float64, 4*n)
	for i := 0; i < n; i++ {
		var vec [3]float64
		copy(vec[:], vs[3*i:3*i+3])
		p := components(MultiplyByVec(number(qs[4*i:4*i+4]), vec))
		copy(out[4*i:], p[:])
	}
	return tensor.New(out, q.Shape()...)
}
