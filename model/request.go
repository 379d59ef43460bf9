// file: model/request.go

package model

import "time"

// RegisterRequest defines the payload for creating a new user.
// It includes validation tags to ensure data integrity at the entry point.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the raw refresh secret for rotation and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RequestEmailPayload is used by the password-reset and
// email-confirmation request endpoints.
type RequestEmailPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries a reset action token and the new password.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateAvatarRequest carries the avatar URL produced by the upload
// collaborator.
type UpdateAvatarRequest struct {
	Avatar string `json:"avatar" validate:"required,url"`
}

// ContactRequest defines the payload for creating or replacing a contact.
type ContactRequest struct {
	FirstName    string     `json:"first_name" validate:"required,max=50"`
	LastName     string     `json:"last_name" validate:"required,max=50"`
	Email        *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string     `json:"phone" validate:"required,max=20"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Additionally *string    `json:"additionally,omitempty" validate:"omitempty,max=500"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

// MessageResponse is a generic informational response body.
type MessageResponse struct {
	Message string `json:"message"`
}
