package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"

	"github.com/mkrupkin/pricefinder/app/config"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
)

// InitStripe wires the Stripe API key from the environment.
func InitStripe() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for stripe: %v", err)
	}
	stripe.Key = cfg.Stripe.SecretKey
}

// ensureStripeCustomer finds or creates a Stripe Customer for the given user.
// It uses users.stripe_customer_id when present, otherwise creates a new
// customer with metadata user_id = <id>, then stores that in the users table.
func ensureStripeCustomer(ctx context.Context, userID int64) (string, error) {
	if db == nil {
		return "", errors.New("db not initialized")
	}

	var stripeID sql.NullString
	err := db.QueryRowContext(
		ctx,
		`
			SELECT stripe_customer_id
			FROM users
			WHERE id = $1;
		`,
		userID,
	).Scan(&stripeID)
	if err != nil {
		return "", err
	}

	if stripeID.Valid && stripeID.String != "" {
		return stripeID.String, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(
		ctx,
		`
			UPDATE users
			SET stripe_customer_id = $1
			WHERE id = $2;
		`,
		cust.ID,
		userID,
	)
	if err != nil {
		return "", err
	}

	return cust.ID, nil
}

func findUserIDByStripeCustomer(ctx context.Context, stripeCustomerID string) (int64, error) {
	if stripeCustomerID == "" {
		return 0, errors.New("missing stripe customer id")
	}
	var userID int64
	err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE stripe_customer_id = $1;
	`, stripeCustomerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return userID, nil
}
