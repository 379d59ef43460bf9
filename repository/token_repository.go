// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"go-contacts-api/logger"
	"go-contacts-api/model"
	"time"

	"github.com/sirupsen/logrus"
)

// ITokenRepository defines the contract for refresh token database
// operations. Lookups are always by the SHA-256 hash of the client-held
// secret; the raw secret never reaches this layer.
type ITokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id int, now time.Time) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID int, now time.Time) (int64, error)
	PurgeStale(ctx context.Context, expiredBefore, revokedBefore time.Time, batchSize int) (int64, error)
}

// TokenRepository implements ITokenRepository.
type TokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{DB: db}
}

const tokenColumns = `id, user_id, token_hash, created_at, expired_at, revoked_at, ip_address, user_agent`

func scanToken(row *sql.Row) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	err := row.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.CreatedAt,
		&token.ExpiredAt, &token.RevokedAt, &token.IPAddress, &token.UserAgent)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Create inserts a new refresh token record into the database.
func (r *TokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    token.UserID,
		"expired_at": token.ExpiredAt,
	})
	log.Info("Executing query to create a new refresh token")

	query := `INSERT INTO refresh_tokens (user_id, token_hash, expired_at, ip_address, user_agent)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		token.UserID, token.TokenHash, token.ExpiredAt, token.IPAddress, token.UserAgent).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create refresh token query")
		return err
	}
	return nil
}

// GetByTokenHash retrieves a refresh token row regardless of its state.
// Used by the rotation path so a revoked presentation can be detected.
func (r *TokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token_hash = $1`
	token, err := scanToken(r.DB.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get refresh token by hash query")
		}
		return nil, err
	}
	return token, nil
}

// GetActiveByTokenHash retrieves a token only if it is neither revoked
// nor expired at the given instant. The filter runs in SQL against the
// unique token_hash index; absent, expired and revoked rows are all
// indistinguishable sql.ErrNoRows to the caller.
func (r *TokenRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.RefreshToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM refresh_tokens
	          WHERE token_hash = $1 AND revoked_at IS NULL AND expired_at > $2`
	token, err := scanToken(r.DB.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute get active refresh token query")
		}
		return nil, err
	}
	return token, nil
}

// Revoke sets revoked_at on a row if and only if it is not already
// revoked, and reports whether this call won the update. Concurrent
// presenters of the same secret race on the revoked_at IS NULL guard;
// exactly one observes true.
func (r *TokenRepository) Revoke(ctx context.Context, id int, now time.Time) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, now, id)
	if err != nil {
		logger.Log.WithError(err).WithField("token_id", id).Error("Failed to execute revoke refresh token query")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// RevokeAllByUserID revokes every active refresh token of a user.
// Used on refresh-token reuse detection to terminate all sessions.
func (r *TokenRepository) RevokeAllByUserID(ctx context.Context, userID int, now time.Time) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to revoke all refresh tokens for a user")

	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, now, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute revoke all refresh tokens query")
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeStale deletes rows that expired before expiredBefore or were
// revoked before revokedBefore, in batches of batchSize so a single
// sweep cannot hold the table for long. Returns the total rows deleted.
func (r *TokenRepository) PurgeStale(ctx context.Context, expiredBefore, revokedBefore time.Time, batchSize int) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE ctid IN (
	              SELECT ctid FROM refresh_tokens
	              WHERE expired_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $2)
	              LIMIT $3)`

	var total int64
	for {
		res, err := r.DB.ExecContext(ctx, query, expiredBefore, revokedBefore, batchSize)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to execute purge stale refresh tokens query")
			return total, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
		if affected < int64(batchSize) {
			return total, nil
		}
	}
}
