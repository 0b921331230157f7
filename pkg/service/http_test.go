package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRequestSchema(t *testing.T) {
	s := &HTTPServer{}
	rec := httptest.NewRecorder()
	s.handleRequestSchema(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "oneOf")
}

func TestHandleResponseSchema(t *testing.T) {
	s := &HTTPServer{}
	rec := httptest.NewRecorder()
	s.handleResponseSchema(rec, httptest.NewRequest(http.MethodGet, "/response_schema", nil))
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))
}

func TestHandleRequestSchemaYAML(t *testing.T) {
	s := &HTTPServer{}
	rec := httptest.NewRecorder()
	s.handleRequestSchemaYAML(rec, httptest.NewRequest(http.MethodGet, "/schema.yaml", nil))
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "title")
}

func TestHandleCommandMalformedBody(t *testing.T) {
	s := &HTTPServer{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	s.handleCommand(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MalformedRequest")
}

func TestHandleAssetServesIndexAndSetsMIME(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>hi</html>")},
	}
	s := &HTTPServer{assets: fsys}
	rec := httptest.NewRecorder()
	s.handleAsset(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "hi")
}

func TestHandleAssetMissingFile(t *testing.T) {
	s := &HTTPServer{assets: fstest.MapFS{}}
	rec := httptest.NewRecorder()
	s.handleAsset(rec, httptest.NewRequest(http.MethodGet, "/nope.js", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleAssetNilFS(t *testing.T) {
	s := &HTTPServer{}
	rec := httptest.NewRecorder()
	s.handleAsset(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRoutesCommandPostToRoot(t *testing.T) {
	var h http.Handler
	require.NotPanics(t, func() {
		s := NewHTTPServer(nil, fstest.MapFS{"index.html": &fstest.MapFile{Data: []byte("ok")}})
		h = s.Handler()
	})
	// An unknown tag never reaches the Debugger, so a nil Dispatcher
	// suffices to see that POST / is dispatched as a command.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Command":"NotACommand"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "MalformedRequest")
}
