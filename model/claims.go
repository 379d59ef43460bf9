package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims are the claims carried by access tokens. Subject is the
// username; ID (jti) enables individual revocation.
type AppClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ActionClaims are the claims carried by single-purpose tokens
// (email confirmation, password reset). Subject is the email address.
// The purpose tag prevents a reset token being replayed as a
// confirmation token and vice versa.
type ActionClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}
