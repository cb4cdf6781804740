// Package canonical builds the local frame of a residue from three reference
// atoms (conventionally N, CA and C).
//
// The construction is a fixed sequence of single-axis rotations with no
// branch for degenerate geometry. Every normalization carries an additive
// 1e-20, so coincident or collinear atoms give finite but meaningless frames.
// Callers that need guarantees must validate their atoms first.
//
// Symmetries are not handled: N always ends up with non-negative y, so a
// residue supplied with mirrored chirality gets a frame indistinguishable in
// that respect from a standard one. Handle such cases before calling.
package canonical

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/affine"
	"github.com/roboticeyes/quataffine/rotation"
	"github.com/roboticeyes/quataffine/tensor"
)

const epsilon = 1e-20

// transform computes translation and rotation for a single atom triplet.
// Both the batched and the unbatched entry points go through it.
func transform(n, ca, c [3]float64) ([3]float64, rotation.Matrix) {
	// Place CA at the origin.
	translation := [3]float64{-ca[0], -ca[1], -ca[2]}
	for i := range translation {
		n[i] += translation[i]
		c[i] += translation[i]
	}

	// Place C on the x-axis: first rotate about z in the xy plane.
	cx, cy, cz := c[0], c[1], c[2]
	norm := math.Sqrt(cx*cx + cy*cy + epsilon)
	sinC1 := -cy / norm
	cosC1 := cx / norm
	c1 := rotation.Matrix{
		cosC1, -sinC1, 0,
		sinC1, cosC1, 0,
		0, 0, 1,
	}

	// Then about y in the xz plane. The epsilon goes on the norm here, not
	// under the square root.
	norm = math.Sqrt(cx*cx+cy*cy+cz*cz) + epsilon
	sinC2 := cz / norm
	cosC2 := math.Sqrt(cx*cx+cy*cy) / norm
	c2 := rotation.Matrix{
		cosC2, 0, sinC2,
		0, 1, 0,
		-sinC2, 0, cosC2,
	}

	// c1 acts first
	cRot := rotation.Multiply(c2, c1)
	n = rotation.ApplyRotToVec(cRot, n)

	// Place N in the xy plane by rotating about x.
	ny, nz := n[1], n[2]
	norm = math.Sqrt(ny*ny + nz*nz + epsilon)
	sinN := -nz / norm
	cosN := ny / norm
	nRot := rotation.Matrix{
		1, 0, 0,
		0, cosN, -sinN,
		0, sinN, cosN,
	}

	return translation, rotation.Multiply(nRot, cRot)
}

// MakeCanonicalTransform returns the translation and rotation that move a
// residue into its canonical frame: shifting by translation and then rotating
// by rotation puts CA at the origin, C on the positive x-axis and N in the xy
// plane with non-negative y.
//
// n, ca and c must have identical shapes with trailing dimension 3; any
// number of leading axes is accepted. The translation has the input shape,
// the rotation the leading shape followed by 3x3.
func MakeCanonicalTransform(n, ca, c tensor.Array) (translation, rot tensor.Array, err error) {
	if err := checkAtoms(n, ca, c); err != nil {
		return tensor.Array{}, tensor.Array{}, err
	}
	count := n.Batch(1)
	nd, cad, cd := n.Data(), ca.Data(), c.Data()
	ts := make([]float64, 3*count)
	rs := make([]float64, 9*count)
	for i := 0; i < count; i++ {
		t, r := transform(vec(nd, i), vec(cad, i), vec(cd, i))
		copy(ts[3*i:], t[:])
		copy(rs[9*i:], r[:])
	}
	if translation, err = tensor.New(ts, n.Shape()...); err != nil {
		return tensor.Array{}, tensor.Array{}, err
	}
	rot, err = tensor.New(rs, append(n.Leading(1), 3, 3)...)
	return translation, rot, err
}

// MakeCanonicalTransformVec is the unbatched form of MakeCanonicalTransform
func MakeCanonicalTransformVec(n, ca, c r3.Vector) (r3.Vector, rotation.Matrix) {
	t, r := transform(array(n), array(ca), array(c))
	return r3.Vector{X: t[0], Y: t[1], Z: t[2]}, r
}

// MakeTransformFromReference returns the transform from the canonical frame
// back to the input coordinates as (rotationᵗ, -translation). Unlike
// MakeCanonicalTransform the rotation is applied first and the translation
// second.
func MakeTransformFromReference(n, ca, c tensor.Array) (rot, translation tensor.Array, err error) {
	t, r, err := MakeCanonicalTransform(n, ca, c)
	if err != nil {
		return tensor.Array{}, tensor.Array{}, err
	}
	rt := r.Clone()
	data := rt.Data()
	for i := 0; i < r.Batch(2); i++ {
		var m rotation.Matrix
		copy(m[:], data[9*i:9*i+9])
		m = rotation.Transpose(m)
		copy(data[9*i:], m[:])
	}
	return rt, t.Neg(), nil
}

// MakeTransformFromReferenceVec is the unbatched form of
// MakeTransformFromReference
func MakeTransformFromReferenceVec(n, ca, c r3.Vector) (rotation.Matrix, r3.Vector) {
	t, r := MakeCanonicalTransformVec(n, ca, c)
	return rotation.Transpose(r), t.Mul(-1)
}

// NewFrame returns the affine frames that map canonical residue coordinates
// to the input coordinates. The quaternion is recovered from the rotation, so
// this fails with rotation.ErrIllConditioned for degenerate atom triplets.
func NewFrame(n, ca, c tensor.Array, opts ...affine.Option) (*affine.Frame, error) {
	rot, translation, err := MakeTransformFromReference(n, ca, c)
	if err != nil {
		return nil, err
	}
	q, err := rotation.RotToQuat(rot)
	if err != nil {
		return nil, err
	}
	return affine.New(q, translation, rot, false, opts...)
}

func checkAtoms(n, ca, c tensor.Array) error {
	for _, a := range []struct {
		name string
		arr  tensor.Array
	}{{"n", n}, {"ca", ca}, {"c", c}} {
		if err := a.arr.CheckTrailing(a.name, 3); err != nil {
			return err
		}
	}
	if !tensor.ShapeEqual(n.Shape(), ca.Shape()) || !tensor.ShapeEqual(n.Shape(), c.Shape()) {
		return errors.Wrapf(tensor.ErrInvalidInput, "atom shapes differ: n %v, ca %v, c %v", n.Shape(), ca.Shape(), c.Shape())
	}
	return nil
}

func vec(data []float64, i int) [3]float64 {
	return [3]float64{data[3*i], data[3*i+1], data[3*i+2]}
}

func array(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
