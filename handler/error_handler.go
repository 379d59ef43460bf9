package handler

import (
	"errors"
	"go-contacts-api/common"
	"go-contacts-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError translates the service error taxonomy into transport
// errors. Token decode internals (malformed vs expired vs bad signature)
// all collapse to 401 so the response never reveals which check failed.
func mapServiceError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrUserConflict):
		return common.Conflict("Username or email already taken")
	case errors.Is(err, service.ErrInvalidCredentials):
		return common.Unauthorized("Invalid username or password")
	case errors.Is(err, service.ErrEmailNotConfirmed):
		return common.Forbidden("Email address not confirmed")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return common.Unauthorized("Invalid or expired refresh token")
	case errors.Is(err, service.ErrInvalidAccessToken):
		return common.Unauthorized("Invalid or expired token")
	case errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrInvalidSignature),
		errors.Is(err, service.ErrMalformedToken),
		errors.Is(err, service.ErrWrongPurpose),
		errors.Is(err, service.ErrTokenAlreadyUsed):
		return common.Unauthorized("Invalid or expired token")
	case errors.Is(err, service.ErrUserNotFound):
		return common.NotFound("User not found")
	case errors.Is(err, service.ErrContactNotFound):
		return common.NotFound("Contact not found")
	default:
		return common.Internal(err)
	}
}
