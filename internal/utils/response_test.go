package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithSuccess(rec, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"message":"ok"}}`, rec.Body.String())
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusNotFound, "not_found", "File not found.")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var env struct {
		Success bool      `json:"success"`
		Data    ErrorData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "File not found.", env.Data.Message)
	assert.Equal(t, "not_found", env.Data.Code)
}

func TestRequireAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	_, ok := RequireAuthentication(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = req.WithContext(WithSession(context.Background(), "a@example.com", "tok"))
	rec = httptest.NewRecorder()
	email, ok := RequireAuthentication(rec, req)
	assert.True(t, ok)
	assert.Equal(t, "a@example.com", email)

	token, ok := GetCSRFToken(req)
	assert.True(t, ok)
	assert.Equal(t, "tok", token)
	assert.True(t, IsAuthenticated(req))
	assert.False(t, IsAdmin(req))

	req = req.WithContext(WithAdmin(req.Context()))
	assert.True(t, IsAdmin(req))
}
