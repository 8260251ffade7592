package app

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/mkrupkin/pricefinder/app/config"
	"github.com/mkrupkin/pricefinder/app/models"
	"github.com/mkrupkin/pricefinder/auth"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

type checkoutRequest struct {
	Plan models.Plan `json:"plan"`
}

// CreateCheckoutSession starts a Stripe Checkout Session for the requested
// paid plan.
func CreateCheckoutSession(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, ok := planPricing[req.Plan]; !ok || req.Plan == models.PlanFree {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("stripe checkout config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	priceID := cfg.Stripe.PriceIDs[string(req.Plan)]
	frontendURL := strings.TrimRight(cfg.Stripe.FrontendURL, "/")
	if priceID == "" || frontendURL == "" {
		log.Printf("missing Stripe config: price_id=%t frontend_url=%t", priceID != "", frontendURL != "")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
		return
	}

	stripeCustomerID, err := ensureStripeCustomer(c.Request.Context(), claims.UserID)
	if err != nil {
		log.Printf("ensureStripeCustomer failed for user=%d: %v", claims.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare billing"})
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(stripeCustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"plan": string(req.Plan),
		},
		SuccessURL: stripe.String(frontendURL + "/billing/success"),
		CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		log.Printf("stripe checkout session failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": sess.URL})
}

// StripeWebhook handles Stripe subscription events and records plan changes
// through the ledger.
func StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Printf("stripe webhook read failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("stripe webhook config load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	endpointSecret := cfg.Stripe.WebhookSecret
	if endpointSecret == "" {
		log.Printf("stripe webhook secret missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		sigHeader,
		endpointSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		log.Printf("stripe webhook signature failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe session unmarshal failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
			return
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		plan := models.Plan(sess.Metadata["plan"])
		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}

		userID, err := findUserIDByStripeCustomer(c.Request.Context(), customerID)
		if err != nil {
			log.Printf("stripe plan upgrade lookup failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown customer"})
			return
		}
		if _, err := UpdatePlan(c.Request.Context(), userID, plan, subscriptionID); err != nil {
			log.Printf("stripe plan upgrade failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			log.Printf("stripe subscription unmarshal failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription payload"})
			return
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}

		userID, err := findUserIDByStripeCustomer(c.Request.Context(), customerID)
		if err != nil {
			log.Printf("stripe plan downgrade lookup failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown customer"})
			return
		}
		if _, err := UpdatePlan(c.Request.Context(), userID, models.PlanFree, sub.ID); err != nil {
			log.Printf("stripe plan downgrade failed customer=%s err=%v", customerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
			return
		}
	default:
		// Intentionally ignore unhandled events.
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
