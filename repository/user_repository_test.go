// file: repository/user_repository_test.go

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-contacts-api/model"
)

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "hash_password",
		"role", "avatar", "confirmed", "created_at"}).
		AddRow(1, "ali", "ali@example.com", "$2a$10$hash", string(model.RoleUser), "", true, now)
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users \(username, email, hash_password, role, confirmed\)`).
			WithArgs("ali", "ali@example.com", "$2a$10$hash", model.RoleUser, false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

		user := &model.User{
			Username:     "ali",
			Email:        "ali@example.com",
			HashPassword: "$2a$10$hash",
			Role:         model.RoleUser,
		}
		require.NoError(t, repo.Create(context.Background(), user))
		assert.Equal(t, 1, user.ID)
		assert.Equal(t, now, user.CreatedAt)
	})

	t.Run("duplicate surfaces the unique violation", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users \(username, email, hash_password, role, confirmed\)`).
			WithArgs("ali", "ali@example.com", "$2a$10$hash", model.RoleUser, false).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

		user := &model.User{
			Username:     "ali",
			Email:        "ali@example.com",
			HashPassword: "$2a$10$hash",
			Role:         model.RoleUser,
		}
		err := repo.Create(context.Background(), user)
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("ali").
			WillReturnRows(userRows(now))

		user, err := repo.GetByUsername(context.Background(), "ali")
		require.NoError(t, err)
		assert.Equal(t, "ali@example.com", user.Email)
		assert.True(t, user.Confirmed)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE username = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET hash_password = \$1 WHERE id = \$2`).
		WithArgs("$2a$10$newhash", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), 1, "$2a$10$newhash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ConfirmEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET confirmed = TRUE WHERE email = \$1`).
		WithArgs("ali@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ConfirmEmail(context.Background(), "ali@example.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
