package app

import (
	"time"

	"github.com/mkrupkin/pricefinder/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the HTTP router: public health/auth/webhook routes plus
// the token-protected search and billing API.
func NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.POST("/api/auth/register", Register)
	router.POST("/api/auth/login", Login)
	router.POST("/api/stripe/webhook", StripeWebhook)

	tokens, err := auth.NewTokenServiceFromEnv()
	if err != nil {
		return nil, err
	}
	tokenService = tokens

	protected := router.Group("/")
	protected.Use(auth.Middleware(tokens))
	protected.GET("/me", Me)
	protected.GET("/api/quota", GetQuota)
	protected.POST("/api/analyze", AnalyzeProduct)
	protected.POST("/api/billing/create-checkout-session", CreateCheckoutSession)
	protected.POST("/api/billing/update-plan", UpdateUserPlan)

	return router, nil
}
