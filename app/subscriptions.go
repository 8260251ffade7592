// Subscription plan changes recorded as an append-only ledger.
package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/mkrupkin/pricefinder/app/models"
)

// planPricing is the fixed monthly price table in UAH.
var planPricing = map[models.Plan]int{
	models.PlanFree:       0,
	models.PlanExplorer:   89,
	models.PlanUniversal:  199,
	models.PlanBusiness:   799,
	models.PlanEnterprise: 2499,
}

// execer is the slice of *sql.Tx the ledger writes need. Factored out so a
// failing write can be simulated in tests.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// applyPlanChange performs the two ledger writes: the user's current plan
// state and the append-only subscription row. Callers run it inside a
// transaction so either both writes land or neither does.
func applyPlanChange(ctx context.Context, ex execer, userID int64, plan models.Plan, price int, expiresAt time.Time, billingRef string) error {
	_, err := ex.ExecContext(ctx, `
		UPDATE users
		SET subscription_plan = $1,
		    subscription_status = 'active',
		    subscription_expires_at = $2
		WHERE id = $3;
	`, plan, expiresAt, userID)
	if err != nil {
		return err
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan, status, price_uah, starts_at, expires_at, stripe_subscription_id, auto_renew, created_at)
		VALUES ($1, $2, 'active', $3, now(), $4, $5, TRUE, now());
	`, userID, plan, price, expiresAt, nullIfEmpty(billingRef))
	return err
}

// UpdatePlan moves the user onto the given plan and records the change. The
// plan state update and the ledger append are one all-or-nothing unit.
func UpdatePlan(ctx context.Context, userID int64, plan models.Plan, billingRef string) (models.PlanChange, error) {
	price, ok := planPricing[plan]
	if !ok {
		return models.PlanChange{}, InvalidPlanError{Plan: string(plan)}
	}

	expiresAt := time.Now().AddDate(0, 1, 0)
	change := models.PlanChange{
		Plan:      plan,
		Price:     price,
		ExpiresAt: expiresAt,
		Status:    "active",
	}

	if db == nil {
		// Allow test runs without a backing DB.
		return change, nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return models.PlanChange{}, err
	}
	defer tx.Rollback()

	if err := applyPlanChange(ctx, tx, userID, plan, price, expiresAt, billingRef); err != nil {
		return models.PlanChange{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.PlanChange{}, err
	}

	return change, nil
}

// createFreeSubscription seeds the ledger for a new account: free plan, one
// year, no auto-renew.
func createFreeSubscription(ctx context.Context, ex execer, userID int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, plan, status, price_uah, starts_at, expires_at, auto_renew)
		VALUES ($1, 'free', 'active', 0, now(), now() + INTERVAL '1 year', FALSE);
	`, userID)
	return err
}
