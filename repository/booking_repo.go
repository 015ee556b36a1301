package repository

import (
	"context"
	"errors"

	"dormitory/constants"
	"dormitory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingFilter struct {
	Status       string
	RoomNumber   string
	StudentID    uint
	AcademicYear string
	Semester     string
	Page         int
	Limit        int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	// FindActiveByStudent returns nil, nil when the student has no active booking.
	FindActiveByStudent(ctx context.Context, studentID uint) (*models.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
	// FindByPeriod matches every semester of the year when semester is empty.
	FindByPeriod(ctx context.Context, academicYear, semester string) ([]models.Booking, error)
	FindByPeriodAndStatus(ctx context.Context, academicYear, semester, status string) ([]models.Booking, error)
	UpdateStatusByIDs(ctx context.Context, ids []uint, status string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type bookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error)
}

func (r *bookingRepo) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Room").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) FindActiveByStudent(ctx context.Context, studentID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, constants.BookingStatusActive).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.RoomNumber != "" {
		query = query.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.Semester != "" {
		query = query.Where("semester = ?", filter.Semester)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var bookings []models.Booking
	if err := query.Preload("Room").Order("created_at DESC, id DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(booking).Error)
}

func (r *bookingRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Booking{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookingRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Booking{})
	return result.RowsAffected, result.Error
}

func (r *bookingRepo) FindByPeriod(ctx context.Context, academicYear, semester string) ([]models.Booking, error) {
	return r.FindByPeriodAndStatus(ctx, academicYear, semester, "")
}

func (r *bookingRepo) FindByPeriodAndStatus(ctx context.Context, academicYear, semester, status string) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Where("academic_year = ?", academicYear)
	if semester != "" {
		query = query.Where("semester = ?", semester)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	err := query.Order("id").Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) UpdateStatusByIDs(ctx context.Context, ids []uint, status string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.Booking{}).Where("id IN ?", ids).Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *bookingRepo) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Booking{})
	return result.RowsAffected, result.Error
}
