package main

import (
	"log"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := migrations.Up(cfg.DB.DSN()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")
}
