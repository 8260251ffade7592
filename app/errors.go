// Package app implements the product-search pipeline and the quota and
// subscription bookkeeping around it.
package app

import (
	"errors"
	"fmt"
)

// Machine-checkable error kinds. The HTTP layer maps these to status codes;
// callers may retry only on KindRateLimit.
const (
	KindExtraction   = "extraction_error"
	KindSchema       = "schema_error"
	KindAuth         = "auth_error"
	KindRateLimit    = "rate_limit"
	KindBilling      = "billing_error"
	KindService      = "service_error"
	KindUserNotFound = "user_not_found"
	KindInvalidPlan  = "invalid_plan"
)

// ErrUserNotFound is returned when quota or plan operations reference an
// account that does not exist or is deactivated.
var ErrUserNotFound = errors.New("user not found")

// ExtractionError means no decodable JSON payload was found in the
// completion-service answer. Never retried.
type ExtractionError struct {
	Reason string
}

func (e ExtractionError) Error() string {
	return "no valid JSON found in completion response: " + e.Reason
}

// SchemaError means the payload decoded but failed shape or value checks.
// Field and Index point at the first violation; Index is -1 for envelope-level
// failures.
type SchemaError struct {
	Field  string
	Index  int
	Reason string
}

func (e SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid search payload: %s (%s)", e.Reason, e.Field)
	}
	return fmt.Sprintf("invalid search payload: %s (field %s, result %d)", e.Reason, e.Field, e.Index)
}

// ServiceError wraps a completion-service failure classified from its HTTP
// status: 401 auth, 429 rate limit, 402 billing, anything else generic.
type ServiceError struct {
	Kind    string
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return fmt.Sprintf("completion service error (%s, status %d): %s", e.Kind, e.Status, e.Message)
}

// InvalidPlanError rejects plan names outside the known set.
type InvalidPlanError struct {
	Plan string
}

func (e InvalidPlanError) Error() string {
	return "invalid subscription plan: " + e.Plan
}

// ErrorKind resolves the machine-checkable kind for any pipeline error.
func ErrorKind(err error) string {
	var extraction ExtractionError
	var schema SchemaError
	var service ServiceError
	var invalidPlan InvalidPlanError

	switch {
	case errors.As(err, &extraction):
		return KindExtraction
	case errors.As(err, &schema):
		return KindSchema
	case errors.As(err, &service):
		return service.Kind
	case errors.As(err, &invalidPlan):
		return KindInvalidPlan
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	default:
		return KindService
	}
}
