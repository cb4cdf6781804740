// Package server exposes the frame geometry over HTTP. Frames travel as flat
// 7-vectors [w, x, y, z, tx, ty, tz] together with their leading shape.
package server

import (
	"encoding/json"
	gomath "math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/affine"
	"github.com/roboticeyes/quataffine/event"
	"github.com/roboticeyes/quataffine/status"
	"github.com/roboticeyes/quataffine/tensor"
)

var log = event.Log

// Server serves the frame operations
type Server struct {
	config ConfigSource
}

// NewServer returns a server reading its settings from config on every
// request, so a ConfigWatcher takes effect without restart
func NewServer(config ConfigSource) *Server {
	return &Server{config: config}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/v1/health", s.health)

	v1 := r.Group("/v1", s.ValidateToken)
	v1.POST("/frames/canonical", s.canonicalFrames)
	v1.POST("/frames/compose", s.composeFrames)
	v1.POST("/frames/apply", s.applyFrames)
	v1.POST("/frames/invert", s.invertFrames)
	v1.POST("/frames/rescale", s.rescaleFrames)
	v1.POST("/rotations/quaternion", s.rotationsToQuaternions)
	v1.POST("/transformations/apply", s.applyTransformations)
	return r
}

// Run listens on the configured address until the server fails
func (s *Server) Run() error {
	addr := s.config.Current().ListenAddr
	log.WithFields(event.Fields{
		"addr": addr,
	}).Info("Starting frame service")
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// decode reads the raw body into v and returns it for optional fields that
// are looked up with gjson
func (s *Server) decode(c *gin.Context, v interface{}) ([]byte, bool) {
	body, err := c.GetRawData()
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		s.fail(c, errors.Wrap(tensor.ErrInvalidInput, err.Error()))
		return nil, false
	}
	return body, true
}

func (s *Server) fail(c *gin.Context, err error) {
	st := status.FromError(err)
	log.WithFields(event.Fields{
		"path":   c.Request.URL.Path,
		"code":   st.Code,
		"userID": c.GetString(KeyUserID),
	}).Debug("Request failed: " + err.Error())
	st.Send(c)
}

// batch builds an array for a request field, enforcing MaxBatch on the
// leading shape. Without a shape the values form a single batch axis.
func (s *Server) batch(values []float64, leading []int, width ...int) (tensor.Array, error) {
	per := 1
	for _, w := range width {
		per *= w
	}
	if leading == nil {
		if len(values)%per != 0 {
			return tensor.Array{}, errors.Wrapf(tensor.ErrInvalidInput, "%d values do not split into groups of %d", len(values), per)
		}
		leading = []int{len(values) / per}
	}
	if err := s.limit(leading); err != nil {
		return tensor.Array{}, err
	}
	return tensor.New(values, append(append([]int(nil), leading...), width...)...)
}

// limit enforces MaxBatch on the number of elements of a batch shape
func (s *Server) limit(shape []int) error {
	count, err := tensor.Size(shape...)
	if err != nil {
		return err
	}
	if max := s.config.Current().MaxBatch; max > 0 && count > max {
		return errors.Wrapf(tensor.ErrInvalidInput, "batch of %d exceeds the limit of %d", count, max)
	}
	return nil
}

func (s *Server) frames(values []float64, leading []int, normalize bool) (*affine.Frame, error) {
	flat, err := s.batch(values, leading, affine.FlatWidth)
	if err != nil {
		return nil, err
	}
	return affine.FromFlatVector(flat, normalize)
}

func flatten(f *affine.Frame) ([]float64, error) {
	flat, err := f.ToFlatVector()
	if err != nil {
		return nil, err
	}
	return finite(flat)
}

// finite rejects results that cannot be encoded as JSON numbers, e.g. after
// normalizing a zero quaternion
func finite(a tensor.Array) ([]float64, error) {
	for _, v := range a.Data() {
		if gomath.IsNaN(v) || gomath.IsInf(v, 0) {
			return nil, errors.Wrap(tensor.ErrInvalidInput, "result is not finite")
		}
	}
	return a.Data(), nil
}
