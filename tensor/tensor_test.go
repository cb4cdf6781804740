package tensor

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsWrongSize(t *testing.T) {
	_, err := New([]float64{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = New(nil, -1)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestNewCopiesData(t *testing.T) {
	data := []float64{1, 2, 3}
	a := MustNew(data, 3)
	data[0] = 42
	assert.Equal(t, 1.0, a.Data()[0])
}

func TestCheckTrailing(t *testing.T) {
	a := Zeros(2, 5, 3, 3)
	assert.NoError(t, a.CheckTrailing("rot", 3, 3))
	assert.Error(t, a.CheckTrailing("quat", 4))
	assert.Error(t, Zeros(3).CheckTrailing("rot", 3, 3))
	assert.Equal(t, []int{2, 5}, a.Leading(2))
	assert.Equal(t, 10, a.Batch(2))
}

func TestSliceAndConcat(t *testing.T) {
	a := MustNew([]float64{
		1, 2, 3, 4, 5, 6, 7,
		8, 9, 10, 11, 12, 13, 14,
	}, 2, 7)

	q, err := a.Slice(0, 4)
	require.NoError(t, err)
	tr, err := a.Slice(4, 7)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 8, 9, 10, 11}, q.Data())
	assert.Equal(t, []float64{5, 6, 7, 12, 13, 14}, tr.Data())

	back, err := Concat(q, tr)
	require.NoError(t, err)
	assert.True(t, EqualApprox(a, back, 0))

	_, err = a.Slice(5, 9)
	assert.Error(t, err)
	_, err = Concat(q, Zeros(3, 3))
	assert.Error(t, err)
}

func TestStackUnstack(t *testing.T) {
	x := MustNew([]float64{1, 2}, 2)
	y := MustNew([]float64{3, 4}, 2)
	z := MustNew([]float64{5, 6}, 2)

	s, err := Stack(x, y, z)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, s.Shape())
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, s.Data())

	parts := s.Unstack()
	require.Len(t, parts, 3)
	assert.True(t, EqualApprox(parts[1], y, 0))

	_, err = Stack(x, Zeros(3))
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	a := MustNew([]float64{3, 4, 0, 0, 0, 2}, 2, 3)
	assert.Equal(t, []float64{5, 2}, a.NormLast().Data())
	assert.Equal(t, []float64{-3, -4, 0, 0, 0, -2}, a.Neg().Data())

	sum, err := a.Add(a.Scale(2))
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 12, 0, 0, 0, 6}, sum.Data())
	// the receiver is untouched
	assert.Equal(t, []float64{3, 4, 0, 0, 0, 2}, a.Data())

	_, err = a.Add(Zeros(3, 2))
	assert.Error(t, err)
}

func TestShapeSizeOverflow(t *testing.T) {
	huge := []int{math.MaxInt/2 + 1, 4, 7}
	_, err := New(nil, huge...)
	assert.True(t, errors.Is(err, ErrInvalidInput), "%v", err)
	_, err = Size(huge...)
	assert.True(t, errors.Is(err, ErrInvalidInput), "%v", err)
	assert.Panics(t, func() { Zeros(huge...) })

	// a zero axis keeps the product small whatever follows
	n, err := Size(0, math.MaxInt, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = Size(2, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
