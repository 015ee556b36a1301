package repository

import (
	"context"

	"dormitory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomFilter struct {
	RoomType      string
	AvailableOnly bool
}

type RoomRepository interface {
	GetByNumber(ctx context.Context, number string) (*models.Room, error)
	List(ctx context.Context, filter RoomFilter) ([]models.Room, error)
	ListNumbers(ctx context.Context) ([]string, error)
	// LockForUpdate loads the rooms with a row lock held until the transaction ends.
	// Missing rooms are simply absent from the result.
	LockForUpdate(ctx context.Context, numbers ...string) ([]models.Room, error)
	UpdateOccupancy(ctx context.Context, number string, occupancy int) error
	SetAvailability(ctx context.Context, number string, available bool) error
	Delete(ctx context.Context, number string) error
}

type roomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) GetByNumber(ctx context.Context, number string) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, "room_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	query := r.db.WithContext(ctx).Model(&models.Room{})
	if filter.RoomType != "" {
		query = query.Where("room_type = ?", filter.RoomType)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ? AND current_occupancy < capacity", true)
	}

	var rooms []models.Room
	if err := query.Order("room_number").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepo) ListNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Room{}).Order("room_number").Pluck("room_number", &numbers).Error
	return numbers, err
}

func (r *roomRepo) LockForUpdate(ctx context.Context, numbers ...string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_number IN ?", numbers).
		Order("room_number").
		Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) UpdateOccupancy(ctx context.Context, number string, occupancy int) error {
	return r.updateColumn(ctx, number, "current_occupancy", occupancy)
}

func (r *roomRepo) SetAvailability(ctx context.Context, number string, available bool) error {
	return r.updateColumn(ctx, number, "is_available", available)
}

func (r *roomRepo) updateColumn(ctx context.Context, number, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Room{}).Where("room_number = ?", number).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, number string) error {
	result := r.db.WithContext(ctx).Delete(&models.Room{}, "room_number = ?", number)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
