package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/synth-squad/payout-engine/internal/alerts"
)

func main() {
	_ = godotenv.Load()

	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		log.Printf("mailer not configured, alerts will be logged only: %v", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	log.Printf("alert worker starting (redis=%s)", redisAddr)
	if err := alerts.RunWorker(redisAddr); err != nil {
		log.Fatalf("alert worker: %v", err)
	}
}
