package domain

import "time"

// User is an account owner. Email is stored lower-cased and is unique.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile is a user plus aggregate counts shown on the dashboard.
type UserProfile struct {
	User
	Count ProfileCount `json:"_count"`
}

type ProfileCount struct {
	Entities int64 `json:"entities"`
}
