package handlers

import (
	"log"
	"net/http"
	"strconv"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StubCheckoutURL is where upgrades land when no Stripe key is configured.
const StubCheckoutURL = "https://checkout.stripe.com/pay/test_xxx"

// Upgrade creates a Stripe Checkout Session for the acting user and
// redirects to it. The user id travels as the session's client reference
// id so the webhook can attribute the completed payment. Without a
// configured Stripe key this degrades to a plain redirect to the test
// checkout page.
func (h *Handlers) Upgrade(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if h.cfg.StripeKey == "" {
		http.Redirect(w, r, StubCheckoutURL, http.StatusSeeOther)
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(strconv.FormatInt(user.ID, 10)),
		SuccessURL:        stripe.String(h.cfg.BaseURL + "/dashboard"),
		CancelURL:         stripe.String(h.cfg.BaseURL + "/habit"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(h.cfg.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}

	s, err := session.New(params)
	if err != nil {
		log.Printf("Checkout session error for user %d: %v", user.ID, err)
		http.Error(w, "Could not start checkout. Please try again.", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, s.URL, http.StatusSeeOther)
}
