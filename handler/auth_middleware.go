package handler

import (
	"context"
	"go-contacts-api/common"
	"go-contacts-api/model"
	"go-contacts-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	UsernameKey    contextKey = "username"
	UserRoleKey    contextKey = "userRole"
	AccessTokenKey contextKey = "accessToken"
)

// AuthMiddleware validates bearer access tokens: signature and expiry
// through the codec, then the jti against the revocation ledger.
type AuthMiddleware struct {
	Codec  *service.TokenCodec
	Ledger service.IRevocationLedger
}

func NewAuthMiddleware(codec *service.TokenCodec, ledger service.IRevocationLedger) *AuthMiddleware {
	return &AuthMiddleware{Codec: codec, Ledger: ledger}
}

func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			common.Unauthorized("Authorization header is required").Send(w)
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
			common.Unauthorized("Invalid authorization header format").Send(w)
			return
		}

		tokenString := headerParts[1]
		claims, err := m.Codec.DecodeAccessToken(tokenString)
		if err != nil {
			common.Unauthorized("Invalid or expired token").Send(w)
			return
		}

		revoked, err := m.Ledger.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			common.Internal(err).Send(w)
			return
		}
		if revoked {
			common.Unauthorized("Invalid or expired token").Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UsernameKey, claims.Subject)
		ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
		ctx = context.WithValue(ctx, AccessTokenKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleKey).(string)

		if !ok || role != string(model.RoleAdmin) {
			common.Forbidden("Access denied. Admin privileges required.").Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
