package store

import (
	"context"
	"time"
)

// User represents a bot user keyed by their Telegram identity.
type User struct {
	ID              int64
	TelegramID      int64
	Username        string
	FirstName       string
	City            string
	CityDisplayName string
	CityLat         *float64
	CityLon         *float64
	CreatedAt       time.Time
}

// UpdateUser carries the mutable fields of a user; nil fields are left
// untouched.
type UpdateUser struct {
	ID              int64
	Username        *string
	FirstName       *string
	City            *string
	CityDisplayName *string
	CityLat         *float64
	CityLon         *float64
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.driver.GetUserByTelegramID(ctx, telegramID)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.driver.GetUser(ctx, id)
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	return s.driver.UpdateUser(ctx, update)
}

func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	return s.driver.ListUsers(ctx)
}
