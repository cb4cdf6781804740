package rotation

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/roboticeyes/quataffine/event"
	"github.com/roboticeyes/quataffine/tensor"
)

// DefaultEigenTolerance bounds how far the spectrum of K may drift from the
// one of a proper rotation before RotToQuat refuses the input.
const DefaultEigenTolerance = 0.1

// ErrIllConditioned is returned when a matrix handed to RotToQuat is too far
// from a rotation for its quaternion to mean anything.
var ErrIllConditioned = errors.New("rotation matrix is not orthonormal")

// For a proper rotation the eigenvalues of K are 1 (once) and -1/3 (three
// times).
const (
	maxEigenvalue = 1.0
	minEigenvalue = -1.0 / 3.0
)

// RotMatrixToQuat returns the quaternion of a single rotation matrix together
// with the eigenvalues of K in ascending order.
//
// The eigen decomposition is expensive; this is meant for occasional use and
// not for inner loops. The sign of the quaternion is whatever the solver
// produces.
func RotMatrixToQuat(r Matrix, tol float64) (quat.Number, []float64, error) {
	xx, xy, xz := r[0], r[1], r[2]
	yx, yy, yz := r[3], r[4], r[5]
	zx, zy, zz := r[6], r[7], r[8]

	k := mat.NewSymDense(4, []float64{
		xx + yy + zz, zy - yz, xz - zx, yx - xy,
		zy - yz, xx - yy - zz, xy + yx, xz + zx,
		xz - zx, xy + yx, yy - xx - zz, yz + zy,
		yx - xy, xz + zx, yz + zy, zz - xx - yy,
	})
	k.ScaleSym(1.0/3.0, k)

	var eig mat.EigenSym
	if ok := eig.Factorize(k, true); !ok {
		return quat.Number{}, nil, errors.Wrap(ErrIllConditioned, "eigen decomposition did not converge")
	}
	values := eig.Values(nil)
	if err := checkSpectrum(values, tol); err != nil {
		return quat.Number{}, values, err
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	last := len(values) - 1
	q := quat.Number{
		Real: vectors.At(0, last),
		Imag: vectors.At(1, last),
		Jmag: vectors.At(2, last),
		Kmag: vectors.At(3, last),
	}
	return q, values, nil
}

func checkSpectrum(values []float64, tol float64) error {
	top := values[len(values)-1]
	if math.IsNaN(top) || math.Abs(top-maxEigenvalue) > tol {
		return errors.Wrapf(ErrIllConditioned, "largest eigenvalue %.4g, expected %.4g", top, maxEigenvalue)
	}
	for _, v := range values {
		if v < minEigenvalue-tol || v > maxEigenvalue+tol {
			return errors.Wrapf(ErrIllConditioned, "eigenvalues %.4g outside [%.4g, %.4g]", values, minEigenvalue, maxEigenvalue)
		}
	}
	return nil
}

// RotToQuat converts rotation matrices with trailing dimensions 3x3 into
// quaternions using DefaultEigenTolerance.
func RotToQuat(r tensor.Array) (tensor.Array, error) {
	return RotToQuatWithTolerance(r, DefaultEigenTolerance)
}

// RotToQuatWithTolerance converts rotation matrices into quaternions. For
// each element it builds the symmetric matrix K from sums and differences of
// the entries, scaled by 1/3, and returns the eigenvector of the largest
// eigenvalue. The first element whose spectrum deviates from that of a
// rotation by more than tol aborts the conversion with ErrIllConditioned.
func RotToQuatWithTolerance(r tensor.Array, tol float64) (tensor.Array, error) {
	if err := r.CheckTrailing("rotation", 3, 3); err != nil {
		return tensor.Array{}, err
	}
	n := r.Batch(2)
	src := r.Data()
	out := make([]float64, 4*n)
	for i := 0; i < n; i++ {
		var m Matrix
		copy(m[:], src[9*i:9*i+9])
		q, values, err := RotMatrixToQuat(m, tol)
		if err != nil {
			event.Log.WithFields(event.Fields{
				"element":     i,
				"eigenvalues": values,
			}).Warn("Rejecting rotation matrix: " + err.Error())
			return tensor.Array{}, errors.Wrapf(err, "element %d", i)
		}
		c := components(q)
		copy(out[4*i:], c[:])
	}
	return tensor.New(out, append(r.Leading(2), 4)...)
}
