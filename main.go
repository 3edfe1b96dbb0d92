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

	"github.com/gin-gonic/gin"
	"student-records/config"
	"student-records/db"
	"student-records/handlers"
)

func main() {
	cfg := config.Load()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	if cfg.SeedDemoData {
		if err := db.SeedIfEmpty(context.Background(), store); err != nil {
			log.Printf("Warning: could not check for existing data, skipping demo data: %v", err)
		}
	}

	apiHandler := handlers.NewAPIHandler(store)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(handlers.CORS(cfg.CORSOrigins))
	handlers.RegisterRoutes(router, apiHandler)
	cfg.Debugf("CORS origins: %v", cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s (store: %s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// openStore connects the configured backend and returns it with its close function.
func openStore(cfg *config.Config) (db.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		client, err := db.InitializeRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return db.NewRedisService(client), func() { _ = client.Close() }, nil

	case config.DriverPostgres:
		gdb, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := db.NewGormStore(gdb)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
	return nil, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
}
