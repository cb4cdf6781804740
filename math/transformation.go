package math

import (
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/affine"
	"github.com/roboticeyes/quataffine/tensor"
)

// Vec3f is a single precision x/y/z vector
type Vec3f [3]float32

// Vec4f is a single precision quaternion in x/y/z/w order
type Vec4f [4]float32

// Transformation is the JSON form of a single rigid frame. It uses
// quaternions for rotation and stores them x/y/z/w, while affine frames use
// w/x/y/z. The standard transformation does not contain any scale value.
// Please use TransformationWithScale instead.
// Please do not use this struct directly, but use the NewTransformation() instead!
type Transformation struct {
	Translation Vec3f `json:"translation"` // x/y/z
	Rotation    Vec4f `json:"rotation"`    // x/y/z/w
}

// TransformationWithScale takes a normal transformation and adds the scale
// value to it. Scale=1 means the translation is used as is [angstrom]
type TransformationWithScale struct {
	Transformation
	Scale float32 `json:"scale" example:"0.1"` // applied to the translation only
}

// NewTransformation generates a valid transformation where rotation is set
// properly
func NewTransformation() Transformation {
	return Transformation{
		Translation: Vec3f{0.0, 0.0, 0.0},
		Rotation:    Vec4f{0.0, 0.0, 0.0, 1.0},
	}
}

// NewTransformationWithScale generates a valid transformation where scale is
// set to 1
func NewTransformationWithScale() TransformationWithScale {
	t := NewTransformation()
	return TransformationWithScale{
		Transformation: t,
		Scale:          1.0,
	}
}

// ConvertToTransformationWithScale converts a transformation container to a
// transformation with scale 1.0
func ConvertToTransformationWithScale(t Transformation) TransformationWithScale {
	return TransformationWithScale{
		Transformation: t,
		Scale:          1.0,
	}
}

// FrameFromTransformations packs a list of transformations into a frame with
// leading shape [len(ts)]. The quaternions are normalized.
func FrameFromTransformations(ts []Transformation, opts ...affine.Option) (*affine.Frame, error) {
	q := tensor.Zeros(len(ts), 4)
	t := tensor.Zeros(len(ts), 3)
	qd, td := q.Data(), t.Data()
	for i, tr := range ts {
		qd[4*i] = float64(tr.Rotation[3])
		for k := 0; k < 3; k++ {
			qd[4*i+1+k] = float64(tr.Rotation[k])
			td[3*i+k] = float64(tr.Translation[k])
		}
	}
	return affine.FromQuaternion(q, t, true, opts...)
}

// FrameFromScaledTransformations is like FrameFromTransformations but applies
// each element's scale to its translation
func FrameFromScaledTransformations(ts []TransformationWithScale, opts ...affine.Option) (*affine.Frame, error) {
	plain := make([]Transformation, len(ts))
	scale := tensor.Zeros(len(ts))
	for i, t := range ts {
		plain[i] = t.Transformation
		scale.Data()[i] = float64(t.Scale)
	}
	f, err := FrameFromTransformations(plain, opts...)
	if err != nil {
		return nil, err
	}
	return f.RescaleTranslationBy(scale)
}

// TransformationsFromFrame flattens the leading shape of a frame into a list
// of transformations
func TransformationsFromFrame(f *affine.Frame) ([]Transformation, error) {
	q, ok := f.Quaternion()
	if !ok {
		return nil, errors.Wrap(tensor.ErrInvalidInput, "frame has no quaternion")
	}
	qd, td := q.Data(), f.Translation().Data()
	out := make([]Transformation, f.Len())
	for i := range out {
		out[i] = Transformation{
			Translation: Vec3f{float32(td[3*i]), float32(td[3*i+1]), float32(td[3*i+2])},
			Rotation:    Vec4f{float32(qd[4*i+1]), float32(qd[4*i+2]), float32(qd[4*i+3]), float32(qd[4*i])},
		}
	}
	return out, nil
}
