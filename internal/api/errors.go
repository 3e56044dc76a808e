package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/queue"
	"github.com/redpen-app/redpen-api/internal/service"
	"github.com/redpen-app/redpen-api/internal/service/auth"
	"github.com/redpen-app/redpen-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrBuiltInRubric):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, service.ErrEssayNotFound),
		errors.Is(err, service.ErrRubricNotFound),
		errors.Is(err, service.ErrResultNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, queue.ErrUnknownJob),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		isDomainValidationError(err):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	// Authorization errors
	case errors.Is(err, service.ErrBuiltInRubric):
		return "Built-in rubrics cannot be modified"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrEssayNotFound):
		return "Essay not found"

	case errors.Is(err, service.ErrRubricNotFound):
		return "Rubric not found"

	case errors.Is(err, service.ErrResultNotFound):
		return "Grading result not found"

	case errors.Is(err, service.ErrVersionNotFound):
		return "Essay version not found"

	case errors.Is(err, queue.ErrUnknownJob):
		return "Grading job not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	// Bad request errors
	case isDomainValidationError(err):
		if msg, ok := domainValidationMessage(err); ok {
			return msg
		}
		return "Invalid request data"

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid identifier"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// domainValidationErrs lists the entity validation sentinels. These carry
// no internal detail, so their messages are safe to expose to clients.
var domainValidationErrs = []error{
	domain.ErrEmptyEmail,
	domain.ErrInvalidEmail,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrEmptyPassword,
	domain.ErrEmptyEssayContent,
	domain.ErrInvalidEssayStatus,
	domain.ErrInvalidEssaySource,
	domain.ErrEmptyRubricName,
	domain.ErrInvalidRubricScene,
	domain.ErrInvalidDimensionName,
	domain.ErrInvalidDimensionCount,
	domain.ErrInvalidDimensionWeight,
	domain.ErrInvalidDimensionMaxScore,
	domain.ErrInvalidWeightSum,
}

// isDomainValidationError reports whether the error chain contains one of
// the entity validation sentinels.
func isDomainValidationError(err error) bool {
	_, ok := domainValidationMessage(err)
	return ok
}

// domainValidationMessage returns the matching sentinel's message, which is
// free of wrapping context added by the service layer.
func domainValidationMessage(err error) (string, bool) {
	for _, target := range domainValidationErrs {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

// HandleAPIError maps the error to a status code and sends a sanitized JSON
// error response while logging the underlying error. An empty userMessage
// falls back to the safe message derived from the error type.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "url":
		return "invalid URL format"
	default:
		return "validation failed"
	}
}
