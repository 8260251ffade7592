// User accounts, plans and subscription tracking.
package models

import "time"

type Plan string

const (
	PlanFree       Plan = "free"
	PlanExplorer   Plan = "explorer"
	PlanUniversal  Plan = "universal"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

// UnlimitedSearches is the sentinel used as the remaining/limit value for
// plans without a daily cap.
const UnlimitedSearches = -1

type User struct {
	ID                    int64      `db:"id"`
	Email                 string     `db:"email"`
	PasswordHash          string     `db:"password_hash"`
	FirstName             string     `db:"first_name"`
	LastName              string     `db:"last_name"`
	Country               string     `db:"country"`
	City                  string     `db:"city"`
	Language              string     `db:"language"`
	Plan                  Plan       `db:"subscription_plan"`
	SubscriptionStatus    string     `db:"subscription_status"`
	SubscriptionExpiresAt *time.Time `db:"subscription_expires_at"`
	SearchesUsedToday     int        `db:"searches_used_today"`
	SearchesUsedTotal     int        `db:"searches_used_total"`
	LastSearchReset       time.Time  `db:"last_search_reset"`
	IsActive              bool       `db:"is_active"`
	StripeCustomerID      string     `db:"stripe_customer_id"`
}

// QuotaStatus is the answer to "may this user search right now".
type QuotaStatus struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Plan      Plan `json:"plan"`
}

// Subscription is one append-only ledger row recorded on every plan change.
type Subscription struct {
	UserID               int64     `db:"user_id"`
	Plan                 Plan      `db:"plan"`
	Status               string    `db:"status"`
	Price                int       `db:"price_uah"`
	StartsAt             time.Time `db:"starts_at"`
	ExpiresAt            time.Time `db:"expires_at"`
	StripeSubscriptionID string    `db:"stripe_subscription_id"`
	AutoRenew            bool      `db:"auto_renew"`
}

// PlanChange is returned to the caller after a successful plan update.
type PlanChange struct {
	Plan      Plan      `json:"plan"`
	Price     int       `json:"price"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}
