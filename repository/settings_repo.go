package repository

import (
	"context"

	"dormitory/models"

	"gorm.io/gorm"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*models.AcademicSettings, error)
	Update(ctx context.Context, settings *models.AcademicSettings) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*models.AcademicSettings, error) {
	var settings models.AcademicSettings
	if err := r.db.WithContext(ctx).First(&settings, models.AcademicSettingsID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Update(ctx context.Context, settings *models.AcademicSettings) error {
	settings.ID = models.AcademicSettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}
