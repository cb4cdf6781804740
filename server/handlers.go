package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/roboticeyes/quataffine/affine"
	"github.com/roboticeyes/quataffine/canonical"
	"github.com/roboticeyes/quataffine/math"
	"github.com/roboticeyes/quataffine/rotation"
	"github.com/roboticeyes/quataffine/tensor"
)

type canonicalRequest struct {
	N     []float64 `json:"n"`
	CA    []float64 `json:"ca"`
	C     []float64 `json:"c"`
	Shape []int     `json:"shape"`
}

type canonicalResponse struct {
	Shape           []int                 `json:"shape"`
	Translation     []float64             `json:"translation"` // world to frame, applied before rotation
	Rotation        []float64             `json:"rotation"`
	Frames          []float64             `json:"frames"` // frame to world
	Transformations []math.Transformation `json:"transformations"`
}

type framesRequest struct {
	Frames []float64 `json:"frames"`
	Shape  []int     `json:"shape"`
}

type framesResponse struct {
	Shape  []int     `json:"shape"`
	Frames []float64 `json:"frames"`
}

type composeRequest struct {
	framesRequest
	Update []float64 `json:"update"`
}

type pointsRequest struct {
	framesRequest
	Points     []float64 `json:"points"`
	ExtraShape []int     `json:"extraShape"` // axes between the frame shape and the xyz axis
}

type pointsResponse struct {
	Shape  []int     `json:"shape"`
	Points []float64 `json:"points"`
}

type rotationsRequest struct {
	Rotations []float64 `json:"rotations"`
	Shape     []int     `json:"shape"`
}

type quaternionsResponse struct {
	Shape       []int     `json:"shape"`
	Quaternions []float64 `json:"quaternions"`
}

type transformationsRequest struct {
	Transformations []math.TransformationWithScale `json:"transformations"`
	Points          []float64                      `json:"points"`
	ExtraShape      []int                          `json:"extraShape"`
}

// normalize is optional in every frame request and defaults to false
func normalize(body []byte) bool {
	return gjson.GetBytes(body, "normalize").Bool()
}

func (s *Server) canonicalFrames(c *gin.Context) {
	var req canonicalRequest
	if _, ok := s.decode(c, &req); !ok {
		return
	}
	n, err := s.batch(req.N, req.Shape, 3)
	if err != nil {
		s.fail(c, err)
		return
	}
	ca, err := s.batch(req.CA, req.Shape, 3)
	if err != nil {
		s.fail(c, err)
		return
	}
	cc, err := s.batch(req.C, req.Shape, 3)
	if err != nil {
		s.fail(c, err)
		return
	}

	translation, rot, err := canonical.MakeCanonicalTransform(n, ca, cc)
	if err != nil {
		s.fail(c, err)
		return
	}
	f, err := canonical.NewFrame(n, ca, cc)
	if err != nil {
		s.fail(c, err)
		return
	}
	flat, err := flatten(f)
	if err != nil {
		s.fail(c, err)
		return
	}
	ts, err := math.TransformationsFromFrame(f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, canonicalResponse{
		Shape:           f.LeadingShape(),
		Translation:     translation.Data(),
		Rotation:        rot.Data(),
		Frames:          flat,
		Transformations: ts,
	})
}

func (s *Server) composeFrames(c *gin.Context) {
	var req composeRequest
	body, ok := s.decode(c, &req)
	if !ok {
		return
	}
	f, err := s.frames(req.Frames, req.Shape, normalize(body))
	if err != nil {
		s.fail(c, err)
		return
	}
	update, err := tensor.New(req.Update, append(f.LeadingShape(), affine.UpdateWidth)...)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := f.ComposeUpdate(update)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendFrames(c, g)
}

func (s *Server) applyFrames(c *gin.Context) {
	s.movePoints(c, (*affine.Frame).ApplyToPoint)
}

func (s *Server) invertFrames(c *gin.Context) {
	s.movePoints(c, (*affine.Frame).InvertPoint)
}

func (s *Server) movePoints(c *gin.Context, move func(*affine.Frame, tensor.Array, int) (tensor.Array, error)) {
	var req pointsRequest
	body, ok := s.decode(c, &req)
	if !ok {
		return
	}
	f, err := s.frames(req.Frames, req.Shape, normalize(body))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendPoints(c, f, req.Points, req.ExtraShape, move)
}

func (s *Server) applyTransformations(c *gin.Context) {
	var req transformationsRequest
	if _, ok := s.decode(c, &req); !ok {
		return
	}
	if err := s.limit([]int{len(req.Transformations)}); err != nil {
		s.fail(c, err)
		return
	}
	f, err := math.FrameFromScaledTransformations(req.Transformations)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendPoints(c, f, req.Points, req.ExtraShape, (*affine.Frame).ApplyToPoint)
}

func (s *Server) sendPoints(c *gin.Context, f *affine.Frame, values []float64, extraShape []int,
	move func(*affine.Frame, tensor.Array, int) (tensor.Array, error)) {

	lead := append(f.LeadingShape(), extraShape...)
	if err := s.limit(lead); err != nil {
		s.fail(c, err)
		return
	}
	points, err := tensor.New(values, append(lead, 3)...)
	if err != nil {
		s.fail(c, err)
		return
	}
	moved, err := move(f, points, len(extraShape))
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := finite(moved)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pointsResponse{Shape: moved.Shape(), Points: data})
}

// rescaleFrames accepts either a single number or one factor per frame as
// "scale"
func (s *Server) rescaleFrames(c *gin.Context) {
	var req framesRequest
	body, ok := s.decode(c, &req)
	if !ok {
		return
	}
	f, err := s.frames(req.Frames, req.Shape, normalize(body))
	if err != nil {
		s.fail(c, err)
		return
	}

	scale := gjson.GetBytes(body, "scale")
	switch {
	case scale.Type == gjson.Number:
		f = f.RescaleTranslation(scale.Float())
	case scale.IsArray():
		var factors []float64
		for _, v := range scale.Array() {
			factors = append(factors, v.Float())
		}
		perFrame, err := tensor.New(factors, f.LeadingShape()...)
		if err == nil {
			f, err = f.RescaleTranslationBy(perFrame)
		}
		if err != nil {
			s.fail(c, err)
			return
		}
	default:
		s.fail(c, errors.Wrap(tensor.ErrInvalidInput, "scale must be a number or an array of numbers"))
		return
	}
	s.sendFrames(c, f)
}

func (s *Server) rotationsToQuaternions(c *gin.Context) {
	var req rotationsRequest
	if _, ok := s.decode(c, &req); !ok {
		return
	}
	rot, err := s.batch(req.Rotations, req.Shape, 3, 3)
	if err != nil {
		s.fail(c, err)
		return
	}
	q, err := rotation.RotToQuatWithTolerance(rot, s.config.Current().EigenTolerance)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, quaternionsResponse{Shape: q.Leading(1), Quaternions: q.Data()})
}

func (s *Server) sendFrames(c *gin.Context, f *affine.Frame) {
	flat, err := flatten(f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, framesResponse{Shape: f.LeadingShape(), Frames: flat})
}
