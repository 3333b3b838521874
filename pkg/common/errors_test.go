package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_WrapsAndMaps(t *testing.T) {
	cause := errors.New("latitude out of range")
	err := fmt.Errorf("estimate: %w", NewBadRequestError("invalid coordinates", cause))

	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "invalid coordinates: latitude out of range")
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(NewNotFoundError("ride not found", nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestAppErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"app error", NewConflictError("billing already active", nil), http.StatusConflict, "billing already active"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			AppErrorResponse(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantMsg, resp.Error.Message)
		})
	}
}
