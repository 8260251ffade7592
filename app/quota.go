// Daily search quota enforcement per user and plan.
package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mkrupkin/pricefinder/app/models"
)

// planSearchLimits maps each plan to its daily search allowance. Unlimited
// plans carry the -1 sentinel; unknown plans get no allowance at all.
var planSearchLimits = map[models.Plan]int{
	models.PlanFree:       2,
	models.PlanExplorer:   15,
	models.PlanUniversal:  100,
	models.PlanBusiness:   models.UnlimitedSearches,
	models.PlanEnterprise: models.UnlimitedSearches,
}

func planSearchLimit(plan models.Plan) int {
	limit, ok := planSearchLimits[plan]
	if !ok {
		return 0
	}
	return limit
}

// evaluateQuota decides admission from the plan and today's counter alone.
func evaluateQuota(plan models.Plan, usedToday int) models.QuotaStatus {
	limit := planSearchLimit(plan)
	if limit == models.UnlimitedSearches {
		return models.QuotaStatus{
			Allowed:   true,
			Remaining: models.UnlimitedSearches,
			Limit:     models.UnlimitedSearches,
			Plan:      plan,
		}
	}

	remaining := limit - usedToday
	if remaining < 0 {
		remaining = 0
	}
	return models.QuotaStatus{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Limit:     limit,
		Plan:      plan,
	}
}

func dayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// needsDailyReset reports whether the watermark is from an earlier day. The
// rollover is evaluated lazily at the next quota check or increment, never by
// a background timer.
func needsDailyReset(lastReset, now time.Time) bool {
	return dayStartUTC(lastReset).Before(dayStartUTC(now))
}

// CanUserSearch checks whether the user may run another search today. The
// stale-day rollover is applied inside the same serializable transaction as
// the read so two concurrent checks cannot disagree about the counter.
func CanUserSearch(ctx context.Context, userID int64) (models.QuotaStatus, error) {
	if db == nil {
		// Allow test runs without a backing DB.
		return evaluateQuota(models.PlanFree, 0), nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return models.QuotaStatus{}, err
	}
	defer tx.Rollback()

	user, err := getUserForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QuotaStatus{}, ErrUserNotFound
		}
		return models.QuotaStatus{}, err
	}

	now := time.Now()
	if needsDailyReset(user.LastSearchReset, now) {
		user.SearchesUsedToday = 0
		user.LastSearchReset = dayStartUTC(now)
		if err := updateUserUsage(ctx, tx, userID, user.SearchesUsedToday, user.SearchesUsedTotal, user.LastSearchReset); err != nil {
			return models.QuotaStatus{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.QuotaStatus{}, err
	}

	return evaluateQuota(user.Plan, user.SearchesUsedToday), nil
}

// IncrementSearchUsage charges one search against the user. The counter
// increment and watermark roll happen in a single serializable transaction so
// two concurrent searches from the same user cannot both be admitted into the
// last remaining slot. Token/cost accumulation into the daily stats row
// happens separately after commit.
func IncrementSearchUsage(ctx context.Context, userID int64, tokensUsed int, costUSD float64) error {
	if db == nil {
		return nil
	}
	if tokensUsed < 0 {
		tokensUsed = 0
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	user, err := getUserForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	now := time.Now()
	if needsDailyReset(user.LastSearchReset, now) {
		user.SearchesUsedToday = 0
	}
	user.SearchesUsedToday++
	user.SearchesUsedTotal++
	user.LastSearchReset = dayStartUTC(now)

	if err := updateUserUsage(ctx, tx, userID, user.SearchesUsedToday, user.SearchesUsedTotal, user.LastSearchReset); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return upsertUsageStats(ctx, userID, tokensUsed, costUSD)
}

func getUserForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (models.User, error) {
	var user models.User
	err := tx.QueryRowContext(ctx, `
		SELECT subscription_plan, searches_used_today, searches_used_total, last_search_reset
		FROM users
		WHERE id = $1 AND is_active = TRUE
		FOR UPDATE;
	`, userID).Scan(&user.Plan, &user.SearchesUsedToday, &user.SearchesUsedTotal, &user.LastSearchReset)
	if err != nil {
		return models.User{}, err
	}
	user.ID = userID
	return user, nil
}

func updateUserUsage(ctx context.Context, tx *sql.Tx, userID int64, usedToday, usedTotal int, lastReset time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET searches_used_today = $1, searches_used_total = $2, last_search_reset = $3
		WHERE id = $4;
	`, usedToday, usedTotal, lastReset, userID)
	return err
}

// upsertUsageStats accumulates tokens and cost into the per-day aggregate:
// create-if-absent, else add.
func upsertUsageStats(ctx context.Context, userID int64, tokensUsed int, costUSD float64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO usage_stats (user_id, date, searches_count, tokens_used, api_cost_usd)
		VALUES ($1, CURRENT_DATE, 1, $2, $3)
		ON CONFLICT (user_id, date) DO UPDATE SET
			searches_count = usage_stats.searches_count + 1,
			tokens_used = usage_stats.tokens_used + EXCLUDED.tokens_used,
			api_cost_usd = usage_stats.api_cost_usd + EXCLUDED.api_cost_usd;
	`, userID, tokensUsed, costUSD)
	return err
}
