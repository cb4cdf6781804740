package status

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/roboticeyes/quataffine/rotation"
	"github.com/roboticeyes/quataffine/tensor"
)

// Status structure with code and message presentable to the user
type Status struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"status bad request"`
	Cause   error  `json:"-"`
}

// NewStatus creates a new object by the given information
func NewStatus(code int, message string) *Status {
	return &Status{
		Code:    code,
		Message: message,
	}
}

// FromError maps library errors to a status. Shape and argument violations
// are the caller's fault (400), matrices that are not rotations are
// unprocessable data (422), everything else is internal.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, tensor.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, rotation.ErrIllConditioned):
		code = http.StatusUnprocessableEntity
	}
	return &Status{Code: code, Message: err.Error(), Cause: err}
}

// Send sends the status back as a JSON response
func (s *Status) Send(ctx *gin.Context) {
	ctx.AbortWithStatusJSON(s.Code, s)
}

// Implements the error interface
func (s Status) Error() string {
	if s.Message != "" {
		return s.Message
	}
	return http.StatusText(s.Code)
}

// Unwrap returns the library error the status was built from
func (s Status) Unwrap() error {
	return s.Cause
}
