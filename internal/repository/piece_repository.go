package repository

import (
	"context"

	"artastic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PieceRepository interface {
	GetAll(ctx context.Context) ([]models.Piece, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Piece, error)
	Create(ctx context.Context, piece *models.Piece) error
	Update(ctx context.Context, id uuid.UUID, patch models.PiecePatch) (*models.Piece, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pieceRepository struct {
	db *gorm.DB
}

func NewPieceRepository(db *gorm.DB) PieceRepository {
	return &pieceRepository{db: db}
}

func (r *pieceRepository) GetAll(ctx context.Context) ([]models.Piece, error) {
	var pieces []models.Piece
	if err := r.db.WithContext(ctx).Order("name").Find(&pieces).Error; err != nil {
		return nil, fetchErr("pieces", err)
	}
	return pieces, nil
}

func (r *pieceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Piece, error) {
	var piece models.Piece
	if err := r.db.WithContext(ctx).First(&piece, "id = ?", id).Error; err != nil {
		return nil, lookupErr("piece", id.String(), err)
	}
	return &piece, nil
}

func (r *pieceRepository) Create(ctx context.Context, piece *models.Piece) error {
	if err := r.db.WithContext(ctx).Create(piece).Error; err != nil {
		return writeErr("piece", "create", err)
	}
	return nil
}

func (r *pieceRepository) Update(ctx context.Context, id uuid.UUID, patch models.PiecePatch) (*models.Piece, error) {
	if cols := patch.Columns(); len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Piece{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, writeErr("piece", "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, missingRow("piece", "update")
		}
	}
	piece, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, writeErr("piece", "update", err)
	}
	return piece, nil
}

func (r *pieceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Piece{}, "id = ?", id)
	if res.Error != nil {
		return writeErr("piece", "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return missingRow("piece", "delete")
	}
	return nil
}
