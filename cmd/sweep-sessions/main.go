// One-shot maintenance tool: deletes expired and revoked session rows.
// Meant for cron or manual runs against the production database.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/satyyam01/finsage/internal/auth"
	"github.com/satyyam01/finsage/internal/config"
	"github.com/satyyam01/finsage/internal/db"
)

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	store := auth.NewStore(gdb, cfg.SessionTTL())
	swept, err := store.SweepExpired()
	if err != nil {
		log.Fatal("Sweep failed: ", err)
	}
	log.Printf("Swept %d session rows", swept)
}
