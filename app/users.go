// Account registration, authentication and lookup.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"github.com/mkrupkin/pricefinder/app/models"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	errInvalidEmail       = errors.New("invalid email format")
	errEmailTaken         = errors.New("user with this email already exists")
	errWeakPassword       = errors.New("password must be at least 8 characters long")
	errInvalidCredentials = errors.New("invalid email or password")
	errAccountDeactivated = errors.New("account is deactivated")
)

// RegistrationInput carries the optional profile fields next to the required
// credentials.
type RegistrationInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Country   string
	City      string
	Language  string
}

// RegisterUser creates an account with a bcrypt password hash, defaulting to
// the free plan, and seeds its initial subscription ledger row.
func RegisterUser(ctx context.Context, input RegistrationInput) (models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, errInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return models.User{}, errWeakPassword
	}

	if _, err := getUserByEmail(ctx, email); err == nil {
		return models.User{}, errEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	country := input.Country
	if country == "" {
		country = "Ukraine"
	}
	language := input.Language
	if language == "" {
		language = "uk"
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return models.User{}, err
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, country, city, language, subscription_plan, last_search_reset, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'free', CURRENT_DATE, now())
		RETURNING id;
	`, email, string(hash), input.FirstName, input.LastName, country, input.City, language).Scan(&userID)
	if err != nil {
		return models.User{}, err
	}

	if err := createFreeSubscription(ctx, tx, userID); err != nil {
		return models.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:       userID,
		Email:    email,
		Plan:     models.PlanFree,
		IsActive: true,
	}, nil
}

// AuthenticateUser verifies credentials and returns the account.
func AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := getUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errInvalidCredentials
		}
		return models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, errInvalidCredentials
	}
	if !user.IsActive {
		return models.User{}, errAccountDeactivated
	}

	_, _ = db.ExecContext(ctx, `UPDATE users SET updated_at = now() WHERE id = $1;`, user.ID)

	return user, nil
}

func getUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, subscription_plan, searches_used_today, last_search_reset, is_active
		FROM users
		WHERE email = $1;
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Plan, &user.SearchesUsedToday, &user.LastSearchReset, &user.IsActive)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func getUserByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, subscription_plan, searches_used_today, last_search_reset, is_active
		FROM users
		WHERE id = $1 AND is_active = TRUE;
	`, userID).Scan(&user.ID, &user.Email, &user.Plan, &user.SearchesUsedToday, &user.LastSearchReset, &user.IsActive)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
