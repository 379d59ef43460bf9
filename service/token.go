// file: service/token.go

package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"go-contacts-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Action token purposes. The tag is embedded in the claims so a reset
// token can never be accepted where a confirmation token is expected.
const (
	PurposePasswordReset = "password_reset"
	PurposeEmailConfirm  = "email_confirm"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrWrongPurpose     = errors.New("token purpose mismatch")
)

// TokenCodec issues and validates signed tokens. The signing secret and
// clock leeway are injected at construction; the codec holds no mutable
// state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, leeway time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		leeway: leeway,
		now:    time.Now,
	}
}

// IssueAccessToken signs a short-lived HS256 token for the given subject
// (username) and role. It returns the token string and its jti, which the
// caller needs for later revocation.
func (c *TokenCodec) IssueAccessToken(subject, role string, ttl time.Duration) (string, string, error) {
	now := c.now().UTC()
	jti := uuid.NewString()

	claims := &model.AppClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// DecodeAccessToken validates the signature and expiry of an access token
// and returns its claims. Failures are classified as ErrTokenExpired,
// ErrInvalidSignature or ErrMalformedToken.
func (c *TokenCodec) DecodeAccessToken(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueActionToken signs a single-purpose token for out-of-band flows.
// Subject is the email address; the jti allows single-use fencing through
// the revocation ledger.
func (c *TokenCodec) IssueActionToken(email, purpose string, ttl time.Duration) (string, error) {
	now := c.now().UTC()

	claims := &model.ActionClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// DecodeActionToken validates an action token and checks its purpose tag.
// A valid token with the wrong purpose fails with ErrWrongPurpose.
func (c *TokenCodec) DecodeActionToken(tokenString, expectedPurpose string) (*model.ActionClaims, error) {
	claims := &model.ActionClaims{}
	if err := c.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != expectedPurpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}

func (c *TokenCodec) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}

// NewRefreshSecret returns a cryptographically random refresh secret.
// The raw value is handed to the client exactly once; only its hash is
// ever persisted.
func NewRefreshSecret() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashRefreshSecret returns the hex-encoded SHA-256 digest of a raw
// refresh secret, the only form stored in the database.
func HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
