// Command webhook is the standalone payment-webhook endpoint. It shares
// the database with the main server but deploys and scales separately.
package main

import (
	"log"
	"net/http"
	"os"

	"focusflow/internal/storage"
	"focusflow/internal/webhook"
)

func main() {
	port := envOr("WEBHOOK_PORT", "8090")
	dbPath := envOr("DB_PATH", "focusflow.db")

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET is required")
	}

	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	mux := http.NewServeMux()
	mux.Handle("/webhook", webhook.NewHandler(db, secret))

	log.Printf("Webhook endpoint listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
