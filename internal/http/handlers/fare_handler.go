// Fare suggestion handler backed by the maps route service.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campool/internal/maps"
	"campool/internal/modules/fare"
)

type FareHandler struct {
	routes *maps.RouteService
}

// NewFareHandler accepts a nil route service; suggestions are then disabled.
func NewFareHandler(routes *maps.RouteService) *FareHandler {
	return &FareHandler{routes: routes}
}

func (h *FareHandler) Suggest(c *gin.Context) {
	if h.routes == nil {
		writeError(c, http.StatusServiceUnavailable, "fare suggestions not configured")
		return
	}
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		writeError(c, http.StatusBadRequest, "start and end are required")
		return
	}
	km, err := h.routes.DrivingDistanceKm(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, http.StatusBadGateway, "route lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"distance_km":    km,
		"suggested_fare": fare.Suggest(km, fare.DefaultRate),
	})
}
