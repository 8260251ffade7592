package config

import (
	"os"
	"strconv"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port   string
	DB     PostgresConfig
	OpenAI OpenAIConfig
	Stripe StripeConfig
	Search SearchConfig
	JWT    JWTConfig
}

type PostgresConfig struct {
	Username string
	Password string
	URL      string
	Port     string
	Database string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
	// plan name -> Stripe price id, configured as STRIPE_PRICE_<PLAN>
	PriceIDs map[string]string
}

type SearchConfig struct {
	// MinResults is the schema-validation floor for offers per answer.
	MinResults int
	// FreePlanResultLimit caps visible offers for free-plan users.
	FreePlanResultLimit int
}

type JWTConfig struct {
	Secret string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: envOr("PORT", "8080"),
		DB: PostgresConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PWD"),
			URL:      os.Getenv("POSTGRES_URL"),
			Port:     envOr("POSTGRES_PORT", "5432"),
			Database: envOr("POSTGRES_DB", "pricefinder"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			FrontendURL:   os.Getenv("STRIPE_FRONTEND_URL"),
			PriceIDs: map[string]string{
				"explorer":   os.Getenv("STRIPE_PRICE_EXPLORER"),
				"universal":  os.Getenv("STRIPE_PRICE_UNIVERSAL"),
				"business":   os.Getenv("STRIPE_PRICE_BUSINESS"),
				"enterprise": os.Getenv("STRIPE_PRICE_ENTERPRISE"),
			},
		},
		Search: SearchConfig{
			MinResults:          envIntOr("SEARCH_MIN_RESULTS", 2),
			FreePlanResultLimit: envIntOr("FREE_PLAN_RESULT_LIMIT", 5),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
