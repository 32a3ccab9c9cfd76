package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campool/internal/maps"
)

func TestSuggestUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/fare/suggest", NewFareHandler(nil).Suggest)

	req := httptest.NewRequest(http.MethodGet, "/fare/suggest?start=a&end=b", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSuggestRequiresLocations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	routes, err := maps.NewRouteService("test-key")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/fare/suggest", NewFareHandler(routes).Suggest)

	req := httptest.NewRequest(http.MethodGet, "/fare/suggest?start=a", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
