// file: service/auth_service_test.go

package service

import (
	"context"
	"database/sql"
	"go-contacts-api/model"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID int, hashPassword string) error {
	args := m.Called(ctx, userID, hashPassword)
	return args.Error(0)
}
func (m *mockUserRepo) ConfirmEmail(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
func (m *mockUserRepo) UpdateAvatar(ctx context.Context, email string, avatarURL string) (*model.User, error) {
	args := m.Called(ctx, email, avatarURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
func (m *mockTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *mockTokenRepo) GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}
func (m *mockTokenRepo) Revoke(ctx context.Context, id int, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}
func (m *mockTokenRepo) RevokeAllByUserID(ctx context.Context, userID int, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockTokenRepo) PurgeStale(ctx context.Context, expiredBefore, revokedBefore time.Time, batchSize int) (int64, error) {
	args := m.Called(ctx, expiredBefore, revokedBefore, batchSize)
	return args.Get(0).(int64), args.Error(1)
}

func newTestAuthService(userRepo *mockUserRepo, tokenRepo *mockTokenRepo) *AuthService {
	codec := NewTokenCodec("test-secret", 0)
	return NewAuthService(userRepo, tokenRepo, codec, NewMemoryRevocationLedger(), TokenTTLs{
		Access:  15 * time.Minute,
		Refresh: 7 * 24 * time.Hour,
		Action:  time.Hour,
	})
}

func confirmedUser(s *AuthService, password string) *model.User {
	hash, _ := s.HashPassword(password)
	return &model.User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@x.com",
		HashPassword: hash,
		Role:         model.RoleUser,
		Confirmed:    true,
	}
}

func TestAuthService_HashAndCheckPassword(t *testing.T) {
	s := newTestAuthService(nil, nil)
	password := "Secret123"

	hashed, err := s.HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hashed)

	assert.True(t, s.CheckPasswordHash(password, hashed))
	assert.False(t, s.CheckPasswordHash("notMyPassword", hashed))
	// A malformed digest fails verification instead of panicking.
	assert.False(t, s.CheckPasswordHash(password, "not-a-bcrypt-digest"))
}

func TestAuthService_Register(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)

		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Username == "alice" && u.Email == "alice@x.com" &&
				u.Role == model.RoleUser && !u.Confirmed &&
				u.HashPassword != "Secret123" &&
				s.CheckPasswordHash("Secret123", u.HashPassword)
		})).Return(nil).Once()

		user, err := s.Register(context.Background(), model.RegisterRequest{
			Username: "alice", Email: "alice@x.com", Password: "Secret123",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		userRepo.AssertExpectations(t)
	})

	t.Run("duplicate", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)

		userRepo.On("Create", mock.Anything, mock.Anything).Return(&pq.Error{Code: "23505"}).Once()

		_, err := s.Register(context.Background(), model.RegisterRequest{
			Username: "alice", Email: "alice@x.com", Password: "Secret123",
		})

		assert.ErrorIs(t, err, ErrUserConflict)
		userRepo.AssertExpectations(t)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(userRepo, tokenRepo)
		user := confirmedUser(s, "Secret123")

		userRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()
		tokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(row *model.RefreshToken) bool {
			return row.UserID == user.ID && len(row.TokenHash) == 64 &&
				row.IPAddress.String == "10.0.0.1" && row.UserAgent.String == "test-agent"
		})).Return(nil).Once()

		pair, err := s.Login(context.Background(), "alice", "Secret123", "10.0.0.1", "test-agent")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := s.codec.DecodeAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)

		userRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()

		_, err := s.Login(context.Background(), "ghost", "Secret123", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")

		userRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()

		_, err := s.Login(context.Background(), "alice", "WrongPass1", "", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unconfirmed account", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")
		user.Confirmed = false

		userRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()

		_, err := s.Login(context.Background(), "alice", "Secret123", "", "")
		assert.ErrorIs(t, err, ErrEmailNotConfirmed)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	secret, _ := NewRefreshSecret()
	hash := HashRefreshSecret(secret)

	activeRow := func() *model.RefreshToken {
		return &model.RefreshToken{
			ID:        10,
			UserID:    1,
			TokenHash: hash,
			ExpiredAt: time.Now().UTC().Add(24 * time.Hour),
		}
	}

	t.Run("rotation issues a new pair and revokes the old row", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(userRepo, tokenRepo)
		user := confirmedUser(s, "Secret123")

		tokenRepo.On("GetByTokenHash", mock.Anything, hash).Return(activeRow(), nil).Once()
		tokenRepo.On("Revoke", mock.Anything, 10, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
		userRepo.On("GetByID", mock.Anything, 1).Return(user, nil).Once()
		tokenRepo.On("Create", mock.Anything, mock.MatchedBy(func(row *model.RefreshToken) bool {
			return row.UserID == 1 && row.TokenHash != hash
		})).Return(nil).Once()

		pair, err := s.Refresh(context.Background(), secret, "", "")

		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEqual(t, secret, pair.RefreshToken)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("unknown secret", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)

		tokenRepo.On("GetByTokenHash", mock.Anything, hash).Return(nil, sql.ErrNoRows).Once()

		_, err := s.Refresh(context.Background(), secret, "", "")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired row", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)
		row := activeRow()
		row.ExpiredAt = time.Now().UTC().Add(-time.Hour)

		tokenRepo.On("GetByTokenHash", mock.Anything, hash).Return(row, nil).Once()

		_, err := s.Refresh(context.Background(), secret, "", "")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		tokenRepo.AssertNotCalled(t, "Revoke")
	})

	t.Run("revoked row triggers reuse lockout", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)
		row := activeRow()
		row.RevokedAt = sql.NullTime{Time: time.Now().UTC().Add(-time.Minute), Valid: true}

		tokenRepo.On("GetByTokenHash", mock.Anything, hash).Return(row, nil).Once()
		tokenRepo.On("RevokeAllByUserID", mock.Anything, 1, mock.AnythingOfType("time.Time")).
			Return(int64(3), nil).Once()

		_, err := s.Refresh(context.Background(), secret, "", "")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("losing the rotation race yields unauthorized", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)

		tokenRepo.On("GetByTokenHash", mock.Anything, hash).Return(activeRow(), nil).Once()
		// Another request revoked the row between lookup and update.
		tokenRepo.On("Revoke", mock.Anything, 10, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

		_, err := s.Refresh(context.Background(), secret, "", "")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		tokenRepo.AssertNotCalled(t, "Create")
	})
}

func TestAuthService_Logout(t *testing.T) {
	secret, _ := NewRefreshSecret()
	hash := HashRefreshSecret(secret)

	t.Run("revokes access jti and refresh row", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)

		access, jti, err := s.codec.IssueAccessToken("alice", "USER", 15*time.Minute)
		require.NoError(t, err)

		row := &model.RefreshToken{ID: 10, UserID: 1, TokenHash: hash,
			ExpiredAt: time.Now().UTC().Add(24 * time.Hour)}
		tokenRepo.On("GetActiveByTokenHash", mock.Anything, hash, mock.AnythingOfType("time.Time")).
			Return(row, nil).Once()
		tokenRepo.On("Revoke", mock.Anything, 10, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

		require.NoError(t, s.Logout(context.Background(), access, secret))

		revoked, err := s.ledger.IsRevoked(context.Background(), jti)
		require.NoError(t, err)
		assert.True(t, revoked)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("missing refresh row is not an error", func(t *testing.T) {
		tokenRepo := new(mockTokenRepo)
		s := newTestAuthService(nil, tokenRepo)

		access, _, err := s.codec.IssueAccessToken("alice", "USER", 15*time.Minute)
		require.NoError(t, err)

		tokenRepo.On("GetActiveByTokenHash", mock.Anything, hash, mock.AnythingOfType("time.Time")).
			Return(nil, sql.ErrNoRows).Once()

		assert.NoError(t, s.Logout(context.Background(), access, secret))
	})

	t.Run("invalid access token", func(t *testing.T) {
		s := newTestAuthService(nil, nil)
		err := s.Logout(context.Background(), "garbage", secret)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	t.Run("valid token resolves user", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")

		access, _, err := s.codec.IssueAccessToken("alice", "USER", 15*time.Minute)
		require.NoError(t, err)
		userRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()

		got, err := s.GetCurrentUser(context.Background(), access)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("revoked jti fails while sibling tokens stay valid", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")

		revokedTok, revokedJti, err := s.codec.IssueAccessToken("alice", "USER", 15*time.Minute)
		require.NoError(t, err)
		siblingTok, _, err := s.codec.IssueAccessToken("alice", "USER", 15*time.Minute)
		require.NoError(t, err)

		require.NoError(t, s.ledger.Revoke(context.Background(), revokedJti, time.Now().Add(15*time.Minute)))

		_, err = s.GetCurrentUser(context.Background(), revokedTok)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)

		userRepo.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()
		_, err = s.GetCurrentUser(context.Background(), siblingTok)
		assert.NoError(t, err)
	})

	t.Run("expired token collapses to unauthorized", func(t *testing.T) {
		s := newTestAuthService(nil, nil)

		access, _, err := s.codec.IssueAccessToken("alice", "USER", -time.Minute)
		require.NoError(t, err)

		_, err = s.GetCurrentUser(context.Background(), access)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	userRepo := new(mockUserRepo)
	s := newTestAuthService(userRepo, nil)
	user := confirmedUser(s, "OldSecret123")

	userRepo.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil)

	token, forUser, err := s.RequestPasswordReset(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, forUser.ID)

	var storedHash string
	userRepo.On("UpdatePassword", mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
		storedHash = hash
		return true
	})).Return(nil).Once()

	require.NoError(t, s.ResetPassword(context.Background(), token, "NewSecret456"))

	assert.False(t, s.CheckPasswordHash("OldSecret123", storedHash))
	assert.True(t, s.CheckPasswordHash("NewSecret456", storedHash))

	// The token is single-use.
	err = s.ResetPassword(context.Background(), token, "AnotherPass789")
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	userRepo.AssertExpectations(t)
}

func TestAuthService_PasswordReset_Failures(t *testing.T) {
	t.Run("unknown email is indistinguishable from success", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)

		userRepo.On("GetByEmail", mock.Anything, "ghost@x.com").Return(nil, sql.ErrNoRows).Once()

		token, forUser, err := s.RequestPasswordReset(context.Background(), "ghost@x.com")
		assert.NoError(t, err)
		assert.Empty(t, token)
		assert.Nil(t, forUser)
	})

	t.Run("confirmation token cannot reset a password", func(t *testing.T) {
		s := newTestAuthService(nil, nil)

		token, err := s.codec.IssueActionToken("alice@x.com", PurposeEmailConfirm, time.Hour)
		require.NoError(t, err)

		err = s.ResetPassword(context.Background(), token, "NewSecret456")
		assert.ErrorIs(t, err, ErrWrongPurpose)
	})

	t.Run("expired reset token", func(t *testing.T) {
		s := newTestAuthService(nil, nil)

		token, err := s.codec.IssueActionToken("alice@x.com", PurposePasswordReset, -time.Minute)
		require.NoError(t, err)

		err = s.ResetPassword(context.Background(), token, "NewSecret456")
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	t.Run("confirms an unconfirmed account", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")
		user.Confirmed = false

		token, err := s.codec.IssueActionToken("alice@x.com", PurposeEmailConfirm, time.Hour)
		require.NoError(t, err)

		userRepo.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil).Once()
		userRepo.On("ConfirmEmail", mock.Anything, "alice@x.com").Return(nil).Once()

		already, err := s.ConfirmEmail(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, already)
		userRepo.AssertExpectations(t)
	})

	t.Run("already confirmed is reported, not repeated", func(t *testing.T) {
		userRepo := new(mockUserRepo)
		s := newTestAuthService(userRepo, nil)
		user := confirmedUser(s, "Secret123")

		token, err := s.codec.IssueActionToken("alice@x.com", PurposeEmailConfirm, time.Hour)
		require.NoError(t, err)

		userRepo.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil).Once()

		already, err := s.ConfirmEmail(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, already)
		userRepo.AssertNotCalled(t, "ConfirmEmail")
	})
}

func TestAuthService_RequestEmailConfirmation_AlreadyConfirmed(t *testing.T) {
	userRepo := new(mockUserRepo)
	s := newTestAuthService(userRepo, nil)
	user := confirmedUser(s, "Secret123")

	userRepo.On("GetByEmail", mock.Anything, "alice@x.com").Return(user, nil).Once()

	token, forUser, err := s.RequestEmailConfirmation(context.Background(), "alice@x.com")
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, forUser)
}
