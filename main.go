package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/satyyam01/finsage/internal/advisor"
	"github.com/satyyam01/finsage/internal/auth"
	"github.com/satyyam01/finsage/internal/chat"
	"github.com/satyyam01/finsage/internal/config"
	"github.com/satyyam01/finsage/internal/db"
	"github.com/satyyam01/finsage/internal/history"
	"github.com/satyyam01/finsage/internal/loan"
	"github.com/satyyam01/finsage/internal/middleware"
	"github.com/satyyam01/finsage/internal/predict"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")
	cfg := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	if err := auth.Init(gdb); err != nil {
		log.Fatal(err)
	}
	if err := history.Init(gdb); err != nil {
		log.Fatal(err)
	}

	authStore := auth.NewStore(gdb, cfg.SessionTTL())
	historyStore := history.NewStore(gdb)

	predictor := predict.NewClient(cfg.PredictorURL, cfg.PredictorAPIKey)
	adv := advisor.NewClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
	rates := loan.NewExchangeRateClient(cfg.ExchangeRateURL)

	authHandler := auth.NewHandler(authStore, cfg.Env == "production")
	historyHandler := history.NewHandler(historyStore)
	loanHandler := loan.NewHandler(historyStore, predictor, adv, rates)
	chatHandler := chat.NewHandler(historyStore, adv)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(authHandler))
	r.Mount("/loan", loan.SetupRoutes(loanHandler, authStore))
	r.Mount("/chat", chat.SetupRoutes(chatHandler, authStore))
	r.Mount("/history", history.SetupRoutes(historyHandler, authStore))

	// Expired tokens already fail validation by timestamp; the sweep only
	// reclaims storage.
	go sweepLoop(authStore, cfg.SweepInterval())

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}

func sweepLoop(store *auth.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		swept, err := store.SweepExpired()
		if err != nil {
			log.Printf("[sweep] failed: %v", err)
			continue
		}
		if swept > 0 {
			log.Printf("[sweep] reclaimed %d session rows", swept)
		}
	}
}
