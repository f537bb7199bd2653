package models

import (
	"testing"

	"artastic/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiece_Validate(t *testing.T) {
	valid := Piece{Name: "Vase", Stock: 10, WholesalePrice: decimal.NewFromInt(6), RetailPrice: decimal.NewFromInt(12)}
	assert.NoError(t, valid.Validate())

	bad := Piece{Name: "  ", Stock: -1}
	err := bad.Validate()
	require.Error(t, err)
	fields := apperr.Fields(err)
	require.Len(t, fields, 4)
	assert.Equal(t, "name", fields[0].Field)
	assert.Equal(t, "stock", fields[1].Field)
}

func TestPiece_ValidateRejectsFractionOfCent(t *testing.T) {
	piece := Piece{Name: "Vase", WholesalePrice: decimal.RequireFromString("6.50"), RetailPrice: decimal.RequireFromString("12.999")}
	fields := apperr.Fields(piece.Validate())
	require.Len(t, fields, 1)
	assert.Equal(t, "retail_price", fields[0].Field)

	assert.True(t, IsCents(decimal.RequireFromString("12.990")))
	assert.False(t, IsCents(decimal.RequireFromString("0.335")))
}

func TestFilament_Validate(t *testing.T) {
	assert.NoError(t, (&Filament{Type: "PLA", Color: "Rojo", Stock: 0}).Validate())

	err := (&Filament{Stock: 100}).Validate()
	require.Error(t, err)
	assert.Equal(t, "El tipo es obligatorio; El color es obligatorio", err.Error())
}

func TestClient_Validate(t *testing.T) {
	assert.NoError(t, (&Client{Name: "Ana"}).Validate())
	assert.NoError(t, (&Client{Name: "Ana", Email: "ana@example.com"}).Validate())

	err := (&Client{Name: "Ana", Email: "ana@example"}).Validate()
	require.Error(t, err)
	assert.Equal(t, "Email inválido", err.Error())

	assert.True(t, apperr.IsValidation((&Client{}).Validate()))
}

func TestClient_Matches(t *testing.T) {
	c := Client{Name: "Ana Gómez", Email: "ana@example.com", Phone: "555-1234"}
	assert.True(t, c.Matches(""))
	assert.True(t, c.Matches("ana"))
	assert.True(t, c.Matches("EXAMPLE"))
	assert.True(t, c.Matches("1234"))
	assert.False(t, c.Matches("bruno"))
}

func TestPiecePatch_ApplyAndColumns(t *testing.T) {
	name := "Maceta"
	stock := 3
	patch := PiecePatch{Name: &name, Stock: &stock}

	piece := Piece{Name: "Vase", Stock: 10, RetailPrice: decimal.NewFromInt(20)}
	updated := patch.Apply(piece)

	assert.Equal(t, "Maceta", updated.Name)
	assert.Equal(t, 3, updated.Stock)
	assert.True(t, updated.RetailPrice.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, "Vase", piece.Name)
	assert.Equal(t, map[string]interface{}{"name": "Maceta", "stock": 3}, patch.Columns())
}

func TestOrder_TotalsAndBalance(t *testing.T) {
	order := Order{
		Items: []OrderItem{
			{Quantity: 2, PricePerUnit: decimal.NewFromInt(20)},
			{Quantity: 1, PricePerUnit: decimal.RequireFromString("5.50")},
		},
		TotalPrice: decimal.RequireFromString("45.50"),
		Deposit:    decimal.NewNullDecimal(decimal.NewFromInt(10)),
	}

	assert.True(t, order.ItemsTotal().Equal(decimal.RequireFromString("45.50")))
	assert.True(t, order.Balance().Equal(decimal.RequireFromString("35.50")))

	order.Deposit = decimal.NullDecimal{}
	assert.True(t, order.Balance().Equal(order.TotalPrice))
}

func TestOrder_Matches(t *testing.T) {
	pieceID := uuid.New()
	order := Order{
		ClientName:  "Ana",
		Description: "Regalo de cumpleaños",
		Items:       []OrderItem{{PieceID: pieceID, Quantity: 1}},
	}
	names := map[uuid.UUID]string{pieceID: "Vase"}

	assert.True(t, order.Matches("ana", names))
	assert.True(t, order.Matches("cumple", names))
	assert.True(t, order.Matches("vase", names))
	assert.False(t, order.Matches("dragon", names))
}

func TestOrderStatus_Toggle(t *testing.T) {
	assert.Equal(t, OrderDelivered, OrderPending.Toggle())
	assert.Equal(t, OrderPending, OrderDelivered.Toggle())
	assert.False(t, OrderStatus("cancelled").Valid())
}

func TestOrderPatch_ReplacesItems(t *testing.T) {
	items := []OrderItem{{Quantity: 4, PricePerUnit: decimal.NewFromInt(1)}}
	status := OrderDelivered
	patch := OrderPatch{Status: &status, Items: &items}

	order := patch.Apply(Order{Status: OrderPending, Items: []OrderItem{{Quantity: 1}, {Quantity: 2}}})

	assert.Equal(t, OrderDelivered, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 4, order.Items[0].Quantity)
	_, hasItems := patch.Columns()["items"]
	assert.False(t, hasItems)
}
