// Package affine implements batched rigid frames. A Frame carries, for every
// element of its leading shape, a rotation (as unit quaternion and as 3x3
// matrix) and a translation. The rotation is applied before the translation.
//
// Frames are immutable. Every operation returns a new Frame that shares no
// memory with its source.
package affine

import (
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/rotation"
	"github.com/roboticeyes/quataffine/tensor"
)

// Width of the flat encoding [w, x, y, z, tx, ty, tz]
const FlatWidth = 7

// Width of an update vector [rx, ry, rz, tx, ty, tz]
const UpdateWidth = 6

// Frame is a batch of rigid transforms
type Frame struct {
	quaternion  tensor.Array // zero value when the rotation was supplied without one
	rotation    tensor.Array
	translation tensor.Array
	detacher    Detacher
}

// Option configures a Frame at construction
type Option func(*Frame)

// WithDetacher installs the hook used by DetachRotationGradient
func WithDetacher(d Detacher) Option {
	return func(f *Frame) {
		f.detacher = d
	}
}

// New creates a frame from a quaternion (trailing dimension 4), a translation
// (trailing dimension 3) and a rotation (trailing dimensions 3x3). Either the
// quaternion or the rotation may be left as the zero tensor.Array, but not
// both. When the rotation is missing it is derived from the quaternion.
//
// With normalize set the quaternion is divided by its norm first. A
// quaternion of norm zero is not checked for: the result then contains NaN.
// Callers own that precondition.
//
// When both quaternion and rotation are given they are stored as is and are
// expected to describe the same rotation.
func New(quaternion, translation, rot tensor.Array, normalize bool, opts ...Option) (*Frame, error) {
	if err := validate(quaternion, translation, rot); err != nil {
		return nil, err
	}

	f := &Frame{translation: translation.Clone(), detacher: NoopDetacher{}}
	for _, opt := range opts {
		opt(f)
	}
	if f.detacher == nil {
		f.detacher = NoopDetacher{}
	}

	if !quaternion.IsZero() {
		if normalize {
			f.quaternion = normalized(quaternion)
		} else {
			f.quaternion = quaternion.Clone()
		}
	}

	if rot.IsZero() {
		r, err := rotation.QuatToRot(f.quaternion)
		if err != nil {
			return nil, err
		}
		f.rotation = r
	} else {
		f.rotation = rot.Clone()
	}
	return f, nil
}

// FromQuaternion creates a frame from quaternion and translation only
func FromQuaternion(quaternion, translation tensor.Array, normalize bool, opts ...Option) (*Frame, error) {
	return New(quaternion, translation, tensor.Array{}, normalize, opts...)
}

// FromRotation creates a frame from rotation matrix and translation. The
// frame tracks no quaternion.
func FromRotation(rot, translation tensor.Array, opts ...Option) (*Frame, error) {
	return New(tensor.Array{}, translation, rot, false, opts...)
}

// Identity returns identity frames for the given leading shape
func Identity(leading ...int) *Frame {
	q := tensor.Zeros(append(append([]int(nil), leading...), 4)...)
	data := q.Data()
	for i := 0; i < len(data); i += 4 {
		data[i] = 1
	}
	f, err := FromQuaternion(q, tensor.Zeros(append(append([]int(nil), leading...), 3)...), false)
	if err != nil {
		panic(err)
	}
	return f
}

func validate(quaternion, translation, rot tensor.Array) error {
	if quaternion.IsZero() && rot.IsZero() {
		return errors.Wrap(tensor.ErrInvalidInput, "either quaternion or rotation is required")
	}
	if err := translation.CheckTrailing("translation", 3); err != nil {
		return err
	}
	lead := translation.Leading(1)
	if !quaternion.IsZero() {
		if err := quaternion.CheckTrailing("quaternion", 4); err != nil {
			return err
		}
		if !tensor.ShapeEqual(quaternion.Leading(1), lead) {
			return errors.Wrapf(tensor.ErrInvalidInput,
				"quaternion leading shape %v does not match translation leading shape %v", quaternion.Leading(1), lead)
		}
	}
	if !rot.IsZero() {
		if err := rot.CheckTrailing("rotation", 3, 3); err != nil {
			return err
		}
		if !tensor.ShapeEqual(rot.Leading(2), lead) {
			return errors.Wrapf(tensor.ErrInvalidInput,
				"rotation leading shape %v does not match translation leading shape %v", rot.Leading(2), lead)
		}
	}
	return nil
}

func normalized(q tensor.Array) tensor.Array {
	out := q.Clone()
	data := out.Data()
	norms := q.NormLast().Data()
	for i, n := range norms {
		for k := 0; k < 4; k++ {
			data[4*i+k] /= n
		}
	}
	return out
}

// Quaternion returns a copy of the quaternions. ok is false for frames built
// from a rotation matrix alone.
func (f *Frame) Quaternion() (q tensor.Array, ok bool) {
	if f.quaternion.IsZero() {
		return tensor.Array{}, false
	}
	return f.quaternion.Clone(), true
}

// Rotation returns a copy of the rotation matrices
func (f *Frame) Rotation() tensor.Array {
	return f.rotation.Clone()
}

// Translation returns a copy of the translations
func (f *Frame) Translation() tensor.Array {
	return f.translation.Clone()
}

// LeadingShape is the batch shape shared by all fields
func (f *Frame) LeadingShape() []int {
	return f.translation.Leading(1)
}

// Len is the number of frames
func (f *Frame) Len() int {
	return f.translation.Batch(1)
}

// derive builds a frame with the same hook as f without re-validating
func (f *Frame) derive(quaternion, rot, translation tensor.Array) *Frame {
	return &Frame{quaternion: quaternion, rotation: rot, translation: translation, detacher: f.detacher}
}

// ToFlatVector encodes the frame as [w, x, y, z, tx, ty, tz] per element
func (f *Frame) ToFlatVector() (tensor.Array, error) {
	if f.quaternion.IsZero() {
		return tensor.Array{}, errors.Wrap(tensor.ErrInvalidInput, "frame has no quaternion to encode")
	}
	return tensor.Concat(f.quaternion, f.translation)
}

// FromFlatVector decodes frames from an array with trailing dimension 7
func FromFlatVector(t tensor.Array, normalize bool, opts ...Option) (*Frame, error) {
	if err := t.CheckTrailing("flat frame", FlatWidth); err != nil {
		return nil, err
	}
	q, err := t.Slice(0, 4)
	if err != nil {
		return nil, err
	}
	tr, err := t.Slice(4, FlatWidth)
	if err != nil {
		return nil, err
	}
	return FromQuaternion(q, tr, normalize, opts...)
}

// DetachRotationGradient returns a frame with the same values whose
// quaternion and rotation went through the frame's Detacher. The
// translation keeps its history.
func (f *Frame) DetachRotationGradient() *Frame {
	var q tensor.Array
	if !f.quaternion.IsZero() {
		q = f.detacher.Detach(f.quaternion)
	}
	return f.derive(q, f.detacher.Detach(f.rotation), f.translation.Clone())
}

// RescaleTranslation multiplies every translation by scale
func (f *Frame) RescaleTranslation(scale float64) *Frame {
	return f.derive(f.quaternion.Clone(), f.rotation.Clone(), f.translation.Scale(scale))
}

// RescaleTranslationBy multiplies each frame's translation by its own factor.
// scale has the frame's leading shape, optionally followed by a unit axis.
func (f *Frame) RescaleTranslationBy(scale tensor.Array) (*Frame, error) {
	lead := f.LeadingShape()
	shape := scale.Shape()
	if !tensor.ShapeEqual(shape, lead) && !tensor.ShapeEqual(shape, append(lead, 1)) {
		return nil, errors.Wrapf(tensor.ErrInvalidInput, "scale shape %v does not broadcast over leading shape %v", shape, lead)
	}
	t := f.translation.Clone()
	data := t.Data()
	for i, k := range scale.Data() {
		data[3*i] *= k
		data[3*i+1] *= k
		data[3*i+2] *= k
	}
	return f.derive(f.quaternion.Clone(), f.rotation.Clone(), t), nil
}

// ComposeUpdate applies a small update on top of the frame. The first three
// update components are the vector part of the quaternion increment
// (1, x, y, z), composed to first order; the last three are a translation
// expressed in the frame's current local coordinates. The resulting
// quaternion is renormalized and the rotation rederived from it.
func (f *Frame) ComposeUpdate(update tensor.Array) (*Frame, error) {
	if f.quaternion.IsZero() {
		return nil, errors.Wrap(tensor.ErrInvalidInput, "frame has no quaternion to update")
	}
	if err := update.CheckTrailing("update", UpdateWidth); err != nil {
		return nil, err
	}
	if !tensor.ShapeEqual(update.Leading(1), f.LeadingShape()) {
		return nil, errors.Wrapf(tensor.ErrInvalidInput,
			"update leading shape %v does not match frame leading shape %v", update.Leading(1), f.LeadingShape())
	}

	vec, err := update.Slice(0, 3)
	if err != nil {
		return nil, err
	}
	increment, err := rotation.QuatMultiplyByVec(f.quaternion, vec)
	if err != nil {
		return nil, err
	}
	newQuat, err := f.quaternion.Add(increment)
	if err != nil {
		return nil, err
	}

	local, err := update.Slice(3, UpdateWidth)
	if err != nil {
		return nil, err
	}
	// rotate with the rotation before the update
	world, err := f.applyRotation(local, 0, false)
	if err != nil {
		return nil, err
	}
	newTranslation, err := f.translation.Add(world)
	if err != nil {
		return nil, err
	}

	return New(newQuat, newTranslation, tensor.Array{}, true, WithDetacher(f.detacher))
}
