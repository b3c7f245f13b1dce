package main

import (
	"context"
	"log"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/router"
	"foodgram/internal/services"
	"foodgram/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	cfg := config.Load()

	conn := db.Init(cfg.DatabaseURL, cfg.SeedTags)

	images, err := services.NewImageStore(context.Background(), cfg.Images)
	if err != nil {
		log.Fatalf("Failed to set up image storage: %v", err)
	}
	log.Printf("Image storage: %s", cfg.Images.Storage)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Println("Redis not configured, rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	svc := router.NewServices(conn, cfg, images, utils.GetCache())
	r := router.NewEngine(cfg, svc, rdb)

	log.Printf("Foodgram server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
