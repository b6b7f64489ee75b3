package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careprep/ai-service/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad request", errors.BadRequest("No text provided", nil), http.StatusBadRequest, "No text provided"},
		{"wrapped", fmt.Errorf("handler: %w", errors.TooLarge("too big")), http.StatusRequestEntityTooLarge, "too big"},
		{"rate limited", errors.RateLimited(), http.StatusTooManyRequests, "rate limit exceeded"},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := StatusAndMessage(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestRespondWithError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(ContextRequestID, "req-1")

	RespondWithError(c, errors.BadRequest("No message provided", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Error: "No message provided", RequestID: "req-1"}, body)
}
