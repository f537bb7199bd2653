package store

import (
	"context"

	"artastic/internal/models"
	"artastic/internal/saga"
	"artastic/internal/stock"

	"go.uber.org/zap"
)

var recordQuickSale = operation{
	entity:  "quick_sale",
	name:    "completed",
	success: "Venta registrada correctamente",
	failure: "Error al procesar la venta",
}

// RecordQuickSale writes the sale and takes the sold units out of stock. If
// the stock write fails the order is deleted again, so either both writes
// land or neither does.
func (s *Store) RecordQuickSale(ctx context.Context, order models.Order, item models.OrderItem) (models.Order, models.Piece, error) {
	if err := validateOrder(order, []models.OrderItem{item}); err != nil {
		return models.Order{}, models.Piece{}, err
	}

	var (
		created models.Order
		piece   models.Piece
	)
	err := s.execute(ctx, recordQuickSale, func(ctx context.Context) (Action, error) {
		run := saga.New("quick_sale", s.logger,
			saga.Step{
				Name: "create_order",
				Do: func(ctx context.Context) error {
					created = order
					return s.repos.Orders.Create(ctx, &created, []models.OrderItem{item})
				},
				Undo: func(ctx context.Context) error {
					return s.repos.Orders.Delete(ctx, created.ID)
				},
			},
			saga.Step{
				Name: "decrement_stock",
				Do: func(ctx context.Context) error {
					current, err := s.repos.Pieces.GetByID(ctx, item.PieceID)
					if err != nil {
						return err
					}
					remaining := stock.Decrement(current.Stock, item.Quantity)
					updated, err := s.repos.Pieces.Update(ctx, item.PieceID, models.PiecePatch{Stock: &remaining})
					if err != nil {
						return err
					}
					piece = *updated
					return nil
				},
			},
		)

		if _, err := run.Run(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("quick sale recorded",
			zap.String("order_id", created.ID.String()),
			zap.String("piece_id", piece.ID.String()),
			zap.Int("remaining", piece.Stock))
		return Batch{Actions: []Action{OrderAdded{Order: created}, PieceUpdated{Piece: piece}}}, nil
	})
	if err != nil {
		return models.Order{}, models.Piece{}, err
	}
	return created, piece, nil
}
