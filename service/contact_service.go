package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-contacts-api/model"
	"go-contacts-api/repository"
)

var ErrContactNotFound = errors.New("contact not found")

const (
	defaultContactLimit = 20
	maxContactLimit     = 100
	birthdayWindowDays  = 7
)

// ContactService handles contact-book business logic. All operations are
// scoped to the authenticated owner.
type ContactService struct {
	contactRepo repository.IContactRepository
}

func NewContactService(contactRepo repository.IContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

func (s *ContactService) Create(ctx context.Context, userID int, req model.ContactRequest) (*model.Contact, error) {
	contact := &model.Contact{
		UserID:       userID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		BirthDate:    req.BirthDate,
		Additionally: req.Additionally,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("could not create contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, id, userID int) (*model.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("could not get contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, userID int, filter repository.ContactFilter) ([]*model.Contact, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	contacts, err := s.contactRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Update(ctx context.Context, id, userID int, req model.ContactRequest) (*model.Contact, error) {
	contact := &model.Contact{
		ID:           id,
		UserID:       userID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		BirthDate:    req.BirthDate,
		Additionally: req.Additionally,
	}
	if err := s.contactRepo.Update(ctx, contact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("could not update contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id, userID int) error {
	if err := s.contactRepo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrContactNotFound
		}
		return fmt.Errorf("could not delete contact: %w", err)
	}
	return nil
}

// UpcomingBirthdays lists contacts whose birthday falls in the next week.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID, limit, offset int) ([]*model.Contact, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	contacts, err := s.contactRepo.UpcomingBirthdays(ctx, userID, birthdayWindowDays, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("could not list upcoming birthdays: %w", err)
	}
	return contacts, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultContactLimit
	}
	if limit > maxContactLimit {
		return maxContactLimit
	}
	return limit
}
