package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-contacts-api/model"
	"go-contacts-api/repository"
)

// UserService handles user-profile business logic outside the auth
// protocols themselves.
type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateAvatar stores a new avatar URL for the user with the given email.
func (s *UserService) UpdateAvatar(ctx context.Context, email, avatarURL string) (*model.User, error) {
	user, err := s.userRepo.UpdateAvatar(ctx, email, avatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not update avatar: %w", err)
	}
	return user, nil
}
