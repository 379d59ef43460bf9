package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-contacts-api/logger"
	"go-contacts-api/model"
	"go-contacts-api/repository"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserConflict        = errors.New("username or email already taken")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrEmailNotConfirmed   = errors.New("email address not confirmed")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrInvalidAccessToken  = errors.New("invalid or expired access token")
	ErrTokenAlreadyUsed    = errors.New("token has already been used")
	ErrUserNotFound        = errors.New("user not found")
)

// TokenTTLs bundles the configured lifetimes for the three token kinds.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Action  time.Duration
}

// TokenPair is what login and refresh hand back to the client. The
// refresh secret exists only here and in the client's hands; the store
// keeps its hash.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService composes the credential hasher, token codec, refresh token
// store and revocation ledger into the register/login/refresh/logout and
// password-reset protocols.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	codec     *TokenCodec
	ledger    IRevocationLedger
	ttls      TokenTTLs
	now       func() time.Time
}

func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository,
	codec *TokenCodec, ledger IRevocationLedger, ttls TokenTTLs) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		codec:     codec,
		ledger:    ledger,
		ttls:      ttls,
		now:       time.Now,
	}
}

// HashPassword returns the bcrypt digest of a plaintext password.
// The salt is generated per call and embedded in the digest.
func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash verifies a plaintext password against a bcrypt
// digest. A malformed digest verifies as false, never as a panic.
func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Register creates a new unconfirmed user. Duplicate usernames or emails
// fail with ErrUserConflict.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		HashPassword: hashed,
		Role:         model.RoleUser,
		Confirmed:    false,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrUserConflict
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user, nil
}

// Login verifies credentials and issues a fresh access/refresh pair.
// Unconfirmed accounts are rejected with ErrEmailNotConfirmed.
func (s *AuthService) Login(ctx context.Context, username, password, clientIP, userAgent string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}

	if !s.CheckPasswordHash(password, user.HashPassword) {
		return nil, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issuePair(ctx, user, clientIP, userAgent)
}

// Refresh rotates a refresh token: the presented secret is validated,
// its row revoked, and a new pair issued. Presenting an already-revoked
// secret is treated as possible theft and terminates every active
// session of that user.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret, clientIP, userAgent string) (*TokenPair, error) {
	now := s.now().UTC()
	hash := HashRefreshSecret(refreshSecret)

	row, err := s.tokenRepo.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("could not look up refresh token: %w", err)
	}

	if row.RevokedAt.Valid {
		logger.Log.WithField("user_id", row.UserID).
			Warn("Revoked refresh token presented, revoking all sessions for user")
		if _, err := s.tokenRepo.RevokeAllByUserID(ctx, row.UserID, now); err != nil {
			return nil, fmt.Errorf("could not revoke user sessions: %w", err)
		}
		return nil, ErrInvalidRefreshToken
	}
	if !row.ExpiredAt.After(now) {
		return nil, ErrInvalidRefreshToken
	}

	// Compare-and-set on revoked_at: of concurrent presenters of the
	// same secret, exactly one proceeds past this point.
	won, err := s.tokenRepo.Revoke(ctx, row.ID, now)
	if err != nil {
		return nil, fmt.Errorf("could not rotate refresh token: %w", err)
	}
	if !won {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}

	return s.issuePair(ctx, user, clientIP, userAgent)
}

// Logout revokes the presented access token's jti in the ledger and the
// refresh token row. Both steps are idempotent; a missing refresh row is
// not an error.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshSecret string) error {
	claims, err := s.codec.DecodeAccessToken(accessToken)
	if err != nil {
		return ErrInvalidAccessToken
	}

	if err := s.ledger.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("could not revoke access token: %w", err)
	}

	now := s.now().UTC()
	row, err := s.tokenRepo.GetActiveByTokenHash(ctx, HashRefreshSecret(refreshSecret), now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("could not look up refresh token: %w", err)
	}
	if _, err := s.tokenRepo.Revoke(ctx, row.ID, now); err != nil {
		return fmt.Errorf("could not revoke refresh token: %w", err)
	}

	logger.Log.WithField("user_id", row.UserID).Info("User logged out")
	return nil
}

// GetCurrentUser resolves an access token to its user. Any token problem
// (bad signature, expiry, revoked jti) collapses to ErrInvalidAccessToken
// so the boundary never leaks which check failed.
func (s *AuthService) GetCurrentUser(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.codec.DecodeAccessToken(accessToken)
	if err != nil {
		return nil, ErrInvalidAccessToken
	}

	revoked, err := s.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("could not check revocation ledger: %w", err)
	}
	if revoked {
		return nil, ErrInvalidAccessToken
	}

	user, err := s.userRepo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset action token for the given email.
// Unknown emails return an empty token and no error so the endpoint can
// answer uniformly and avoid account enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, *model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("could not look up user: %w", err)
	}

	token, err := s.codec.IssueActionToken(user.Email, PurposePasswordReset, s.ttls.Action)
	if err != nil {
		return "", nil, fmt.Errorf("could not issue reset token: %w", err)
	}
	return token, user, nil
}

// ResetPassword validates a reset action token and replaces the user's
// password. Each token is single-use: its jti is fenced in the
// revocation ledger until the token expires on its own.
func (s *AuthService) ResetPassword(ctx context.Context, actionToken, newPassword string) error {
	claims, err := s.codec.DecodeActionToken(actionToken, PurposePasswordReset)
	if err != nil {
		return err
	}

	used, err := s.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("could not check revocation ledger: %w", err)
	}
	if used {
		return ErrTokenAlreadyUsed
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMalformedToken
		}
		return fmt.Errorf("could not look up user: %w", err)
	}

	hashed, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("could not update password: %w", err)
	}

	if err := s.ledger.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("could not fence reset token: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("Password reset completed")
	return nil
}

// RequestEmailConfirmation issues a confirmation action token. Unknown
// and already-confirmed emails return an empty token and no error, for
// the same enumeration-safe uniform response as password reset.
func (s *AuthService) RequestEmailConfirmation(ctx context.Context, email string) (string, *model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("could not look up user: %w", err)
	}
	if user.Confirmed {
		return "", nil, nil
	}

	token, err := s.codec.IssueActionToken(user.Email, PurposeEmailConfirm, s.ttls.Action)
	if err != nil {
		return "", nil, fmt.Errorf("could not issue confirmation token: %w", err)
	}
	return token, user, nil
}

// ConfirmEmail validates a confirmation action token and marks the
// account confirmed. Confirming twice reports alreadyConfirmed rather
// than an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, actionToken string) (alreadyConfirmed bool, err error) {
	claims, err := s.codec.DecodeActionToken(actionToken, PurposeEmailConfirm)
	if err != nil {
		return false, err
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrMalformedToken
		}
		return false, fmt.Errorf("could not look up user: %w", err)
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.userRepo.ConfirmEmail(ctx, user.Email); err != nil {
		return false, fmt.Errorf("could not confirm email: %w", err)
	}

	logger.Log.WithField("user_id", user.ID).Info("Email confirmed")
	return false, nil
}

// EmailConfirmationToken issues a confirmation token for a just-created
// user, used by the registration handler to build the welcome mail.
func (s *AuthService) EmailConfirmationToken(email string) (string, error) {
	return s.codec.IssueActionToken(email, PurposeEmailConfirm, s.ttls.Action)
}

func (s *AuthService) issuePair(ctx context.Context, user *model.User, clientIP, userAgent string) (*TokenPair, error) {
	access, _, err := s.codec.IssueAccessToken(user.Username, string(user.Role), s.ttls.Access)
	if err != nil {
		return nil, fmt.Errorf("could not sign access token: %w", err)
	}

	secret, err := NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("could not generate refresh secret: %w", err)
	}

	row := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashRefreshSecret(secret),
		ExpiredAt: s.now().UTC().Add(s.ttls.Refresh),
		IPAddress: sql.NullString{String: clientIP, Valid: clientIP != ""},
		UserAgent: sql.NullString{String: userAgent, Valid: userAgent != ""},
	}
	if err := s.tokenRepo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("could not persist refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: secret}, nil
}
