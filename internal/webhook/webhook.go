// Package webhook processes signed payment-provider events. It is served
// by cmd/webhook, deployed separately from the main application.
package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"focusflow/internal/models"
	"focusflow/internal/storage"

	stripe "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// Stripe caps event payloads well below this.
const maxBodyBytes = 65536

// Handler verifies inbound Stripe events and applies the single write they
// can cause: marking a profile as pro after a completed checkout. It holds
// no state across invocations beyond the database handle.
type Handler struct {
	db     *storage.DB
	secret string
}

// NewHandler creates a webhook handler with the given signing secret.
func NewHandler(db *storage.DB, secret string) *Handler {
	return &Handler{db: db, secret: secret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		http.Error(w, "Missing signature", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Could not read body", http.StatusBadRequest)
		return
	}

	event, err := stripewebhook.ConstructEventWithOptions(body, signature, h.secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		// Unverified events cause no side effects; the provider retries.
		http.Error(w, fmt.Sprintf("Webhook Error: %v", err), http.StatusBadRequest)
		return
	}

	if event.Type == "checkout.session.completed" {
		if err := h.handleCheckoutCompleted(event); err != nil {
			log.Printf("Webhook processing error: %v", err)
			http.Error(w, "Processing error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"received": true}`)
}

func (h *Handler) handleCheckoutCompleted(event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("unmarshal checkout session: %w", err)
	}

	// The checkout flow sets the client reference id to the user id;
	// events without one have nothing to attribute and are acknowledged
	// as-is.
	if session.ClientReferenceID == "" {
		return nil
	}

	userID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad client reference id %q: %w", session.ClientReferenceID, err)
	}

	// Value-set write: redelivered events are safe to reapply.
	if err := h.db.SetProfileRole(userID, models.RolePro); err != nil {
		return fmt.Errorf("set role for user %d: %w", userID, err)
	}

	log.Printf("User %d upgraded to pro", userID)
	return nil
}
