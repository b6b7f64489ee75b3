package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/careprep/ai-service/pkg/errors"
)

// Handler is implemented by every route group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// BindJSON decodes the request body into obj. On failure the error is
// attached to c for the error middleware and false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var (
		tooLarge *http.MaxBytesError
		invalid  validator.ValidationErrors
	)
	switch {
	case stderrors.As(err, &tooLarge):
		_ = c.Error(errors.TooLarge("Request body too large"))
	case stderrors.As(err, &invalid):
		_ = c.Error(errors.NewValidation("Invalid request", err))
	case stderrors.Is(err, io.EOF):
		_ = c.Error(errors.BadRequest("No data provided", err))
	default:
		_ = c.Error(errors.BadRequest("Invalid JSON body", err))
	}
	return false
}

// Fail attaches a bad request error with message to c.
func Fail(c *gin.Context, message string) {
	_ = c.Error(errors.BadRequest(message, nil))
}
