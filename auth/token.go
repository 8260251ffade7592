package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultLeeway = 30 * time.Second
	tokenTTL      = 24 * time.Hour
)

// TokenService signs and verifies HS256 access tokens. Tokens are issued by
// this service on register/login; there is no external identity provider.
type TokenService struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenServiceFromEnv initializes the service from JWT_SECRET.
func NewTokenServiceFromEnv() (*TokenService, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return NewTokenService(secret), nil
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithLeeway(defaultLeeway),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		),
	}
}

// Issue signs a token carrying the user's id, email and current plan.
func (s *TokenService) Issue(claims Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    claims.UserID,
		"email": claims.Email,
		"plan":  claims.Plan,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning extracted claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := s.parser.Parse(tokenString, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{
		UserID: readInt64(mapClaims, "id"),
		Email:  readString(mapClaims, "email"),
		Plan:   readString(mapClaims, "plan"),
	}
	if claims.UserID == 0 {
		return nil, errors.New("token missing user id")
	}
	return claims, nil
}

func readString(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

func readInt64(claims jwt.MapClaims, key string) int64 {
	switch v := claims[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	}
	return 0
}
