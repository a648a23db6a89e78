package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mkuznetsov/petrofleet/internal/config"
	"github.com/mkuznetsov/petrofleet/internal/es"
	"github.com/mkuznetsov/petrofleet/internal/events"
	"github.com/mkuznetsov/petrofleet/internal/handlers"
	"github.com/mkuznetsov/petrofleet/internal/logging"
	loggingmw "github.com/mkuznetsov/petrofleet/internal/middleware/logging"
	"github.com/mkuznetsov/petrofleet/internal/service/search"
	"github.com/mkuznetsov/petrofleet/internal/session"
	httpserver "github.com/mkuznetsov/petrofleet/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	prod := events.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init: %v", err)
	}

	sessions := session.NewManager(db, configuration.SESSION_TTL)
	secure := configuration.IsProduction()
	deviceSecret := []byte(configuration.DEVICE_SECRET)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:          db,
		Sessions:    sessions,
		Auth:        &handlers.AuthHandler{DB: db, Sessions: sessions, Producer: prod, Secure: secure},
		Vehicles:    &handlers.VehicleHandler{DB: db, Producer: prod, ES: esClient, Index: search.VehicleIndex},
		Drivers:     &handlers.DriverHandler{DB: db, Producer: prod},
		Routes:      &handlers.RouteHandler{DB: db, Producer: prod},
		Trips:       &handlers.TripHandler{DB: db, Producer: prod},
		Maintenance: &handlers.MaintenanceHandler{DB: db, Producer: prod},
		Devices:     &handlers.DeviceHandler{DB: db, Producer: prod, DeviceSecret: deviceSecret},
		GPS:         &handlers.GPSHandler{DB: db, Producer: prod, DeviceSecret: deviceSecret},
		Dashboard:   &handlers.DashboardHandler{DB: db},
		Search:      &handlers.SearchHandler{ES: esClient, Index: search.VehicleIndex},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.LISTEN_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
