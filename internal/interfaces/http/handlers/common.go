// Package handlers implements the gin handlers of the API server.
package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/SymbioLink/internal/interfaces/http/middleware"
	"github.com/turtacn/SymbioLink/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Detail    string           `json:"detail,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// writeAppError maps err to a status through its AppError code. Server side
// failures are masked with the default message for their code.
func writeAppError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown || code == errors.CodeOK {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{
		Code:      code,
		Message:   errors.DefaultMessageForCode(code),
		RequestID: middleware.GetRequestID(c),
	}
	var ae *errors.AppError
	if status < http.StatusInternalServerError && stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// bindJSON decodes the body into dst and classifies failures.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return classifyBodyError(err)
	}
	return nil
}

func classifyBodyError(err error) error {
	var mbe *http.MaxBytesError
	switch {
	case stderrors.As(err, &mbe):
		return errors.Newf(errors.ErrCodeTooManyEntities, "request body exceeds %d bytes", mbe.Limit)
	case stderrors.Is(err, io.EOF):
		return errors.InvalidParam("request body is empty")
	default:
		return errors.Wrap(err, errors.ErrCodeParse, "malformed request body")
	}
}
