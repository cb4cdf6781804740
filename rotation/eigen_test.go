package rotation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/num/quat"

	"github.com/roboticeyes/quataffine/tensor"
)

func TestRotToQuatRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	for n := 0; n < 100; n++ {
		q := randomUnitQuat(rnd)
		r := QuatToRotMatrix(q)

		got, values, err := RotMatrixToQuat(r, DefaultEigenTolerance)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(values[len(values)-1]-1) > 1e-9 {
			t.Fatalf("largest eigenvalue %v", values)
		}
		// compare the induced rotations, the sign of got is arbitrary
		back := QuatToRotMatrix(got)
		if !floats.EqualApprox(back[:], r[:], 1e-9) {
			t.Fatalf("round trip mismatch\n%v\n%v", back, r)
		}
		if d := math.Abs(quat.Abs(got)); math.Abs(d-1) > 1e-9 {
			t.Fatalf("eigenvector norm %v", d)
		}
	}
}

func TestRotToQuatBatched(t *testing.T) {
	r := tensor.MustNew(append(append([]float64{}, Identity[:]...),
		0, -1, 0, 1, 0, 0, 0, 0, 1), 2, 3, 3)
	q, err := RotToQuat(r)
	if err != nil {
		t.Fatal(err)
	}
	if !tensor.ShapeEqual(q.Shape(), []int{2, 4}) {
		t.Fatalf("shape %v", q.Shape())
	}
	back, err := QuatToRot(q)
	if err != nil {
		t.Fatal(err)
	}
	if !tensor.EqualApprox(back, r, 1e-9) {
		t.Fatalf("round trip %v", back)
	}
}

func TestRotToQuatRejectsNonRotation(t *testing.T) {
	scaled := tensor.MustNew([]float64{2, 0, 0, 0, 2, 0, 0, 0, 2}, 1, 3, 3)
	_, err := RotToQuat(scaled)
	if !errors.Is(err, ErrIllConditioned) {
		t.Fatalf("expected ErrIllConditioned, got %v", err)
	}

	// a slightly perturbed rotation is still accepted
	nearly := tensor.MustNew([]float64{1.001, 0, 0, 0, 1, 0.001, 0, 0, 0.999}, 3, 3)
	if _, err := RotToQuat(nearly); err != nil {
		t.Fatalf("near rotation rejected: %v", err)
	}

	if _, err := RotToQuat(tensor.Zeros(4)); !errors.Is(err, tensor.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
