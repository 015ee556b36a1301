package repository

import (
	"context"
	"errors"
	"time"

	"dormitory/constants"
	"dormitory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	CountActive(ctx context.Context, roomNumber string) (int, error)
	// ActiveOccupants lists active occupants oldest first.
	ActiveOccupants(ctx context.Context, roomNumber string) ([]models.Occupant, error)
	// FindActiveByStudent returns nil, nil when the student holds no bed.
	FindActiveByStudent(ctx context.Context, studentID uint) (*models.Assignment, error)
	// Activate upserts the (room, student) row and marks it active.
	Activate(ctx context.Context, roomNumber string, studentID uint, at time.Time) (*models.Assignment, error)
	// Deactivate releases the pair if it is active and reports how many rows changed.
	Deactivate(ctx context.Context, roomNumber string, studentID uint, at time.Time) (int64, error)
	DeleteActive(ctx context.Context, roomNumber string, studentID uint) (int64, error)
	RoomsWithActive(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) CountActive(ctx context.Context, roomNumber string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("room_number = ? AND status = ?", roomNumber, constants.AssignmentStatusActive).
		Count(&count).Error
	return int(count), err
}

func (r *assignmentRepo) ActiveOccupants(ctx context.Context, roomNumber string) ([]models.Occupant, error) {
	var occupants []models.Occupant
	err := r.db.WithContext(ctx).
		Table("assignments AS a").
		Select("a.student_id, u.gender, a.assigned_date").
		Joins("JOIN users AS u ON u.id = a.student_id").
		Where("a.room_number = ? AND a.status = ?", roomNumber, constants.AssignmentStatusActive).
		Order("a.assigned_date ASC, a.id ASC").
		Scan(&occupants).Error
	return occupants, err
}

func (r *assignmentRepo) FindActiveByStudent(ctx context.Context, studentID uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, constants.AssignmentStatusActive).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Activate(ctx context.Context, roomNumber string, studentID uint, at time.Time) (*models.Assignment, error) {
	assignment := models.Assignment{
		RoomNumber:   roomNumber,
		StudentID:    studentID,
		Status:       constants.AssignmentStatusActive,
		AssignedDate: at,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_number"}, {Name: "student_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":        constants.AssignmentStatusActive,
			"assigned_date": at,
			"released_at":   nil,
			"updated_at":    at,
		}),
	}).Create(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Deactivate(ctx context.Context, roomNumber string, studentID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("room_number = ? AND student_id = ? AND status = ?", roomNumber, studentID, constants.AssignmentStatusActive).
		Updates(map[string]interface{}{
			"status":      constants.AssignmentStatusInactive,
			"released_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *assignmentRepo) DeleteActive(ctx context.Context, roomNumber string, studentID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("room_number = ? AND student_id = ? AND status = ?", roomNumber, studentID, constants.AssignmentStatusActive).
		Delete(&models.Assignment{})
	return result.RowsAffected, result.Error
}

func (r *assignmentRepo) RoomsWithActive(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("status = ?", constants.AssignmentStatusActive).
		Distinct().
		Pluck("room_number", &numbers).Error
	return numbers, err
}

func (r *assignmentRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Assignment{})
	return result.RowsAffected, result.Error
}
