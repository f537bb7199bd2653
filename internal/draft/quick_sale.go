package draft

import (
	"strings"
	"time"

	"artastic/internal/models"

	"github.com/shopspring/decimal"
)

// QuickSale is a walk-in sale of a single piece with no client.
type QuickSale struct {
	Piece     *models.Piece
	Quantity  int
	UnitPrice decimal.NullDecimal
	Note      string
}

func (q QuickSale) line() (Line, error) {
	return newLine(q.Piece, q.Quantity, q.UnitPrice, "Solo hay %d unidades disponibles")
}

func (q QuickSale) Validate() error {
	_, err := q.line()
	return err
}

// Build produces a delivered quick_sale order with exactly one item.
func (q QuickSale) Build(now time.Time) (models.Order, models.OrderItem, error) {
	line, err := q.line()
	if err != nil {
		return models.Order{}, models.OrderItem{}, err
	}

	description := strings.TrimSpace(q.Note)
	if description == "" {
		description = "Venta rápida: " + line.PieceName
	}
	delivered := now

	order := models.Order{
		Status:       models.OrderDelivered,
		OrderType:    models.OrderQuickSale,
		DeliveryDate: &delivered,
		Description:  description,
		TotalPrice:   line.Subtotal(),
	}
	item := models.OrderItem{
		PieceID:      line.PieceID,
		Quantity:     line.Quantity,
		PricePerUnit: line.UnitPrice,
	}
	return order, item, nil
}
