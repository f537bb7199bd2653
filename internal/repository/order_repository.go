package repository

import (
	"context"
	"errors"

	"artastic/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// GetAll loads every order newest first, with all items fetched in one batched query.
func (r *orderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fetchErr("orders", err)
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, lookupErr("order", id.String(), err)
	}
	return &order, nil
}

// Create inserts the order and its items in one transaction. Items take their
// position from the slice order.
func (r *orderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order.Items = nil
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		return insertItems(tx, order.ID, items)
	})
	if err != nil {
		return writeErr("order", "create", err)
	}
	order.Items = items
	return nil
}

func insertItems(tx *gorm.DB, orderID uuid.UUID, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].OrderID = orderID
		items[i].Position = i
	}
	return tx.Create(&items).Error
}

// Update writes the header columns and, when the patch carries items, swaps
// the order lines inside the same transaction.
func (r *orderRepository) Update(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (*models.Order, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := patch.Columns()
		if len(cols) > 0 {
			res := tx.Model(&models.Order{}).Where("id = ?", id).Updates(cols)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		if patch.Items == nil {
			return nil
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		items := append([]models.OrderItem(nil), (*patch.Items)...)
		return insertItems(tx, id, items)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, missingRow("order", "update")
		}
		return nil, writeErr("order", "update", err)
	}

	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, writeErr("order", "update", err)
	}
	return order, nil
}

// Delete removes the items and then the order.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return writeErr("order", "delete", err)
	}
	if affected == 0 {
		return missingRow("order", "delete")
	}
	return nil
}
