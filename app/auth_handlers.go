// Public health and account endpoints.
package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/mkrupkin/pricefinder/app/models"
	"github.com/mkrupkin/pricefinder/auth"

	"github.com/gin-gonic/gin"
)

// tokenService is set by NewRouter; register/login use it to issue tokens.
var tokenService *auth.TokenService

var errTokenServiceMissing = errors.New("token service not configured")

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
	City      string `json:"city"`
	Language  string `json:"language"`
}

// Register creates an account on the free plan and returns a signed token.
func Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := RegisterUser(c.Request.Context(), RegistrationInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		City:      req.City,
		Language:  req.Language,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":           user.ID,
		"email":             user.Email,
		"token":             token,
		"subscription_plan": user.Plan,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token plus the remaining daily
// allowance.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := AuthenticateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	token, err := issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	quota, err := CanUserSearch(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quota"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":            user.ID,
		"email":              user.Email,
		"token":              token,
		"subscription_plan":  user.Plan,
		"searches_remaining": quota.Remaining,
	})
}

// Me returns plan and daily usage info for the authenticated user.
func Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		quota := evaluateQuota(models.PlanFree, 0)
		c.JSON(http.StatusOK, gin.H{
			"plan":           quota.Plan,
			"searches_today": 0,
			"daily_limit":    quota.Limit,
			"remaining":      quota.Remaining,
		})
		return
	}

	user, err := getUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	usedToday := user.SearchesUsedToday
	if needsDailyReset(user.LastSearchReset, time.Now()) {
		usedToday = 0
	}

	quota := evaluateQuota(user.Plan, usedToday)
	c.JSON(http.StatusOK, gin.H{
		"plan":           user.Plan,
		"searches_today": usedToday,
		"daily_limit":    quota.Limit,
		"remaining":      quota.Remaining,
	})
}

func issueToken(user models.User) (string, error) {
	if tokenService == nil {
		return "", errTokenServiceMissing
	}
	return tokenService.Issue(auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Plan:   string(user.Plan),
	})
}
