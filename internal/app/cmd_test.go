package app

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coindxter/class-music/internal/store"
)

func newTestApp(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := Setup("test")
	a.Store = store.NewMemoryStore()
	a.config.DownloadDir = t.TempDir()
	router, err := a.Init()
	require.NoError(t, err)
	t.Cleanup(func() { a.Store.Close() })
	return &a, router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestVersionRoute(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodGet, "/version", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{\"version\": \"test\" }", w.Body.String())
}

func TestRootRoute(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "Backend is running!"}`, w.Body.String())
}
