package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRootAndHealth(t *testing.T) {
	g := gin.New()
	NewSystem(nil).Register(g)

	w := serve(g, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"Hello":"Welcome to my country currency & exchange api"}`, w.Body.String())

	w = serve(g, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())
}

func TestReady(t *testing.T) {
	var storeErr error
	g := gin.New()
	NewSystem(map[string]Pinger{
		"store": PingFunc(func(context.Context) error { return storeErr }),
	}).Register(g)

	w := serve(g, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string          `json:"status"`
		Deps   map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ready", body.Status)
	require.True(t, body.Deps["store"])

	storeErr = errors.New("connection refused")
	w = serve(g, "/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Status)
	require.False(t, body.Deps["store"])
}

func TestReadyNilDependency(t *testing.T) {
	g := gin.New()
	NewSystem(map[string]Pinger{"redis": nil}).Register(g)
	require.Equal(t, http.StatusServiceUnavailable, serve(g, "/ready").Code)
}
