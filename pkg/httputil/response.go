package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careprep/ai-service/pkg/errors"
)

// ContextRequestID is the gin context key holding the request ID.
const ContextRequestID = "request_id"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string       `json:"error"`
	Details   []FieldError `json:"details,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RespondWithSuccess sends data as-is with 200.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// StatusAndMessage maps err to the status and caller-visible message.
// Errors that are not an *errors.AppError are reported as internal.
func StatusAndMessage(err error) (int, string) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode(), appErr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// RespondWithError aborts the request with the error body for err.
func RespondWithError(c *gin.Context, err error) {
	status, message := StatusAndMessage(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     message,
		RequestID: c.GetString(ContextRequestID),
	})
}

// RespondWithFieldErrors aborts with 400 and one entry per invalid field.
func RespondWithFieldErrors(c *gin.Context, message string, details []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: c.GetString(ContextRequestID),
	})
}
