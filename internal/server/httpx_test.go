package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusNotFound, "NOT_FOUND", "pad not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["error"].Code)
	assert.Equal(t, "pad not found", body["error"].Message)
}

type decodeTarget struct {
	Name string `json:"name" validate:"required,max=10"`
}

func TestDecodeJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))

	var dst decodeTarget
	require.NoError(t, decodeJSON(rec, req, &dst, 0))
	assert.Equal(t, "ok", dst.Name)
}

func TestDecodeJSONIgnoresUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok","extra":1}`))

	var dst decodeTarget
	require.NoError(t, decodeJSON(rec, req, &dst, 0))
	assert.Equal(t, "ok", dst.Name)
}

func TestDecodeJSONValidates(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))

	var dst decodeTarget
	err := decodeJSON(rec, req, &dst, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestDecodeJSONEnforcesBodyLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	big := `{"name":"` + strings.Repeat("x", 100) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	var dst decodeTarget
	assert.Error(t, decodeJSON(rec, req, &dst, 16))
}
