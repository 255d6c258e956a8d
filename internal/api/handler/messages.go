package handler

import (
	"errors"
	"net/http"

	"github.com/99minutos/authgate/internal/core/domain"
)

const (
	msgSignedUp           = "You have successfully signed up!"
	msgInvalidCredentials = "Invalid credentials, please try again."
	msgMissingFields      = "All fields are required, please try again."
	msgUsernameTaken      = "Username already in use, please try again."
	msgEmailTaken         = "Email already in use, please try again."
	msgAccountExists      = "Username or email already in use, please try again."
	msgPasswordTooLong    = "Password must be at most 72 bytes, please try again."
)

// signupFailure maps a validation outcome to the status and message the
// signup form is re-rendered with. ok is false for infrastructure errors.
func signupFailure(err error) (status int, msg, result string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, msgMissingFields, "missing_fields", true
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, msgUsernameTaken, "username_taken", true
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, msgEmailTaken, "email_taken", true
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, msgPasswordTooLong, "password_too_long", true
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, msgAccountExists, "email_taken", true
	}
	return 0, "", "error", false
}
