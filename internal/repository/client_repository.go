package repository

import (
	"context"

	"artastic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepository interface {
	GetAll(ctx context.Context) ([]models.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, id uuid.UUID, patch models.ClientPatch) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetAll(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.WithContext(ctx).Order("name").Find(&clients).Error; err != nil {
		return nil, fetchErr("clients", err)
	}
	return clients, nil
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, lookupErr("client", id.String(), err)
	}
	return &client, nil
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return writeErr("client", "create", err)
	}
	return nil
}

func (r *clientRepository) Update(ctx context.Context, id uuid.UUID, patch models.ClientPatch) (*models.Client, error) {
	if cols := patch.Columns(); len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, writeErr("client", "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, missingRow("client", "update")
		}
	}
	client, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, writeErr("client", "update", err)
	}
	return client, nil
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id)
	if res.Error != nil {
		return writeErr("client", "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return missingRow("client", "delete")
	}
	return nil
}
