package repository

import (
	"context"

	"artastic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FilamentRepository interface {
	GetAll(ctx context.Context) ([]models.Filament, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Filament, error)
	Create(ctx context.Context, filament *models.Filament) error
	Update(ctx context.Context, id uuid.UUID, patch models.FilamentPatch) (*models.Filament, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type filamentRepository struct {
	db *gorm.DB
}

func NewFilamentRepository(db *gorm.DB) FilamentRepository {
	return &filamentRepository{db: db}
}

func (r *filamentRepository) GetAll(ctx context.Context) ([]models.Filament, error) {
	var filaments []models.Filament
	if err := r.db.WithContext(ctx).Order("type").Find(&filaments).Error; err != nil {
		return nil, fetchErr("filaments", err)
	}
	return filaments, nil
}

func (r *filamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Filament, error) {
	var filament models.Filament
	if err := r.db.WithContext(ctx).First(&filament, "id = ?", id).Error; err != nil {
		return nil, lookupErr("filament", id.String(), err)
	}
	return &filament, nil
}

func (r *filamentRepository) Create(ctx context.Context, filament *models.Filament) error {
	if err := r.db.WithContext(ctx).Create(filament).Error; err != nil {
		return writeErr("filament", "create", err)
	}
	return nil
}

func (r *filamentRepository) Update(ctx context.Context, id uuid.UUID, patch models.FilamentPatch) (*models.Filament, error) {
	if cols := patch.Columns(); len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Filament{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, writeErr("filament", "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, missingRow("filament", "update")
		}
	}
	filament, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, writeErr("filament", "update", err)
	}
	return filament, nil
}

func (r *filamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Filament{}, "id = ?", id)
	if res.Error != nil {
		return writeErr("filament", "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return missingRow("filament", "delete")
	}
	return nil
}
