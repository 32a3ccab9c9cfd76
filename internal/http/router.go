// HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campool/internal/http/handlers"
	"campool/internal/http/middleware"
	"campool/internal/infra"
	"campool/internal/maps"
	"campool/internal/modules/ride"
)

func NewRouter(
	logger *zap.Logger,
	verifier infra.TokenVerifier,
	rideService *ride.Service,
	routeService *maps.RouteService,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(verifier))

	rideHandler := handlers.NewRideHandler(rideService)
	api.POST("/rides", rideHandler.Create)
	api.GET("/rides", rideHandler.Search)
	api.GET("/rides/mine", rideHandler.Mine)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/join", rideHandler.Join)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)
	api.POST("/rides/:id/start", rideHandler.Start)
	api.POST("/rides/:id/complete", rideHandler.Complete)

	fareHandler := handlers.NewFareHandler(routeService)
	api.GET("/fare/suggest", fareHandler.Suggest)

	return r
}
