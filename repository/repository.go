package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository the services use.
type Repository struct {
	Room       RoomRepository
	Assignment AssignmentRepository
	Booking    BookingRepository
	Archive    ArchiveRepository
	Settings   SettingsRepository
	User       UserRepository

	// RunInTx runs fn against a transaction-scoped Repository. When nil,
	// Transaction calls fn with the receiver itself.
	RunInTx func(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository builds the gorm-backed Repository.
func NewRepository(db *gorm.DB) *Repository {
	r := newRepository(db)
	r.RunInTx = func(ctx context.Context, fn func(tx *Repository) error) error {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(newRepository(tx))
		})
		return translateError(err)
	}
	return r
}

func newRepository(db *gorm.DB) *Repository {
	return &Repository{
		Room:       NewRoomRepo(db),
		Assignment: NewAssignmentRepo(db),
		Booking:    NewBookingRepo(db),
		Archive:    NewArchiveRepo(db),
		Settings:   NewSettingsRepo(db),
		User:       NewUserRepo(db),
	}
}

// Transaction commits when fn returns nil and rolls back otherwise.
// Nested calls on a transaction-scoped Repository join the outer transaction.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.RunInTx == nil {
		return fn(r)
	}
	return r.RunInTx(ctx, fn)
}
