// Package server provides the HTTP REST API for the verification engine.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/trustcheck/internal/types"
)

// ErrInvalidCredentials indicates a wrong admin password
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid password"
}

// ErrAdminDisabled indicates that no admin password hash is configured
type ErrAdminDisabled struct{}

func (e *ErrAdminDisabled) Error() string {
	return "admin access is not configured"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalidCredentials *ErrInvalidCredentials
		adminDisabled      *ErrAdminDisabled
		validation         *ErrValidation
		requestErr         *types.RequestError
		validationErrs     validator.ValidationErrors
	)
	switch {
	case errors.As(err, &invalidCredentials):
		return http.StatusUnauthorized
	case errors.As(err, &adminDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &validation), errors.As(err, &requestErr), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage renders the first validator failure, or err itself.
func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		ve := validationErrs[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return err.Error()
}
