package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mangareader/internal/microservices/http-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeAuth stands in for OptionalAuth: X-Test-User and X-Test-Role become the caller.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(middleware.KeyUserID, id)
			c.Set(middleware.KeyUsername, "name-"+id)
			c.Set(middleware.KeyRole, c.GetHeader("X-Test-Role"))
		}
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth())
	return r
}

type call struct {
	method string
	path   string
	body   any
	user   string
	role   string
}

func (tc call) do(t *testing.T, r http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if tc.body != nil {
		raw, err := json.Marshal(tc.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(tc.method, tc.path, body)
	if tc.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.user != "" {
		req.Header.Set("X-Test-User", tc.user)
		req.Header.Set("X-Test-Role", tc.role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
