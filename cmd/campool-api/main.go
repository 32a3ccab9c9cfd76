// Entry point; loads config, wires services and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campool/internal/config"
	httptransport "campool/internal/http"
	"campool/internal/infra"
	"campool/internal/logging"
	"campool/internal/maps"
	"campool/internal/modules/ride"
	"campool/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	verifier := infra.NewJWTVerifier(cfg.Auth.JWTSecret)

	var routeService *maps.RouteService
	if cfg.Maps.APIKey != "" {
		routeService, err = maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init", zap.Error(err))
		}
	}

	rideStore := ride.NewStore(dbPool)
	publisher := notify.NewPublisher(redisClient, logger)
	rideService := ride.NewService(rideStore, publisher)

	handler := httptransport.NewRouter(logger, verifier, rideService, routeService)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("serve", zap.Error(err))
	}
}
