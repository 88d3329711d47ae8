package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/gatehouse"
	gatehousehttp "github.com/sagarc03/gatehouse/http"
	"github.com/stretchr/testify/assert"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"invalid credentials", gatehouse.ErrInvalidCredentials, http.StatusUnauthorized, `"error":"unauthorized"`},
		{"unauthorized", gatehousehttp.ErrUnauthorized, http.StatusUnauthorized, `"error":"unauthorized"`},
		{"expired token", fmt.Errorf("%w: %w", gatehouse.ErrInvalidCredentials, gatehouse.ErrTokenExpired), http.StatusUnauthorized, `"error":"unauthorized"`},
		{"path rejected", gatehouse.ErrPathRejected, http.StatusBadRequest, `"error":"invalid_path"`},
		{"not found", gatehouse.ErrNotFound, http.StatusNotFound, `"error":"not_found"`},
		{"wrapped not found", fmt.Errorf("download x: %w", gatehouse.ErrNotFound), http.StatusNotFound, `"error":"not_found"`},
		{"conflict", gatehouse.ErrConflict, http.StatusBadRequest, `"error":"conflict"`},
		{"invalid input", gatehouse.ErrInvalidInput, http.StatusBadRequest, `"error":"invalid_input"`},
		{"too large", gatehousehttp.ErrTooLarge, http.StatusRequestEntityTooLarge, `"error":"too_large"`},
		{"internal", gatehouse.ErrInternal, http.StatusInternalServerError, `"error":"internal_error"`},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, `"error":"internal_error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			gatehousehttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandleError_InternalDoesNotLeakDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	gatehousehttp.HandleError(rec, errors.New("open /srv/data/secret: permission denied"))

	assert.NotContains(t, rec.Body.String(), "/srv/data")
}

func TestWriteUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()

	gatehousehttp.WriteUnauthorized(rec)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ElementsMatch(t, []string{"Bearer", `Basic realm="gatehouse"`}, rec.Header().Values("WWW-Authenticate"))
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	gatehousehttp.WriteError(rec, http.StatusBadRequest, "bad_request", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"bad_request"`)
	assert.Contains(t, rec.Body.String(), `"message":"Invalid request"`)
}

func TestWriteJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	data := map[string]string{"key": "value"}
	err := gatehousehttp.WriteJSON(rec, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"key":"value"`)
}

func TestWriteJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be JSON encoded
	data := make(chan int)
	err := gatehousehttp.WriteJSON(rec, http.StatusOK, data)

	assert.Error(t, err)
}
