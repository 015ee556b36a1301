package repository

import (
	"context"

	"dormitory/models"

	"gorm.io/gorm"
)

const archiveBatchSize = 200

type ArchiveRepository interface {
	CreateBatch(ctx context.Context, archives []models.BookingArchive) error
	List(ctx context.Context, academicYear, semester string) ([]models.BookingArchive, error)
}

type archiveRepo struct {
	db *gorm.DB
}

func NewArchiveRepo(db *gorm.DB) ArchiveRepository {
	return &archiveRepo{db: db}
}

func (r *archiveRepo) CreateBatch(ctx context.Context, archives []models.BookingArchive) error {
	if len(archives) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&archives, archiveBatchSize).Error
}

func (r *archiveRepo) List(ctx context.Context, academicYear, semester string) ([]models.BookingArchive, error) {
	query := r.db.WithContext(ctx).Where("academic_year = ?", academicYear)
	if semester != "" {
		query = query.Where("semester = ?", semester)
	}
	var archives []models.BookingArchive
	err := query.Order("archived_at DESC, id DESC").Find(&archives).Error
	return archives, err
}
