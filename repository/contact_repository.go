package repository

import (
	"context"
	"database/sql"
	"fmt"
	"go-contacts-api/logger"
	"go-contacts-api/model"
)

// ContactFilter narrows a contact listing. Zero-value fields are ignored.
type ContactFilter struct {
	FirstName string
	LastName  string
	Email     string
	Limit     int
	Offset    int
}

// IContactRepository defines the contract for contact database operations.
// Every operation is scoped to the owning user.
type IContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, id, userID int) (*model.Contact, error)
	List(ctx context.Context, userID int, filter ContactFilter) ([]*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, id, userID int) error
	UpcomingBirthdays(ctx context.Context, userID, days, limit, offset int) ([]*model.Contact, error)
}

// ContactRepository implements IContactRepository.
type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birth_date, additionally, created_at, updated_at`

func scanContactRow(scan func(dest ...interface{}) error) (*model.Contact, error) {
	c := &model.Contact{}
	err := scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.BirthDate, &c.Additionally, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	log := logger.Log.WithField("user_id", contact.UserID)
	log.Info("Executing query to create a new contact")

	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone, birth_date, additionally)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, contact.UserID, contact.FirstName, contact.LastName,
		contact.Email, contact.Phone, contact.BirthDate, contact.Additionally).
		Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create contact query")
		return err
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id, userID int) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND user_id = $2`
	row := r.DB.QueryRowContext(ctx, query, id, userID)
	return scanContactRow(row.Scan)
}

func (r *ContactRepository) List(ctx context.Context, userID int, filter ContactFilter) ([]*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.FirstName != "" {
		args = append(args, "%"+filter.FirstName+"%")
		query += fmt.Sprintf(" AND first_name ILIKE $%d", len(args))
	}
	if filter.LastName != "" {
		args = append(args, "%"+filter.LastName+"%")
		query += fmt.Sprintf(" AND last_name ILIKE $%d", len(args))
	}
	if filter.Email != "" {
		args = append(args, "%"+filter.Email+"%")
		query += fmt.Sprintf(" AND email ILIKE $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryContacts(ctx, query, args...)
}

func (r *ContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `UPDATE contacts
	          SET first_name = $1, last_name = $2, email = $3, phone = $4,
	              birth_date = $5, additionally = $6, updated_at = NOW()
	          WHERE id = $7 AND user_id = $8
	          RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query, contact.FirstName, contact.LastName, contact.Email,
		contact.Phone, contact.BirthDate, contact.Additionally, contact.ID, contact.UserID).
		Scan(&contact.UpdatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).Error("Failed to execute update contact query")
		}
		return err
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id, userID int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute delete contact query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// `days` days. The month-day comparison wraps across the year boundary.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, userID, days, limit, offset int) ([]*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
	          WHERE user_id = $1 AND birth_date IS NOT NULL AND (
	              (to_char(CURRENT_DATE, 'MMDD') <= to_char(CURRENT_DATE + $2::int, 'MMDD')
	                  AND to_char(birth_date, 'MMDD') BETWEEN to_char(CURRENT_DATE, 'MMDD')
	                                                      AND to_char(CURRENT_DATE + $2::int, 'MMDD'))
	              OR
	              (to_char(CURRENT_DATE, 'MMDD') > to_char(CURRENT_DATE + $2::int, 'MMDD')
	                  AND (to_char(birth_date, 'MMDD') >= to_char(CURRENT_DATE, 'MMDD')
	                       OR to_char(birth_date, 'MMDD') <= to_char(CURRENT_DATE + $2::int, 'MMDD')))
	          )
	          ORDER BY to_char(birth_date, 'MMDD') LIMIT $3 OFFSET $4`
	return r.queryContacts(ctx, query, userID, days, limit, offset)
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...interface{}) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute contacts query")
		return nil, err
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		c, err := scanContactRow(rows.Scan)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan contact row")
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
