package model

import "time"

type Contact struct {
	ID           int        `json:"id"`
	UserID       int        `json:"user_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        *string    `json:"email,omitempty"`
	Phone        string     `json:"phone"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Additionally *string    `json:"additionally,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
