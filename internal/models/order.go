package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDelivered OrderStatus = "delivered"
)

// Toggle flips pending and delivered.
func (s OrderStatus) Toggle() OrderStatus {
	if s == OrderDelivered {
		return OrderPending
	}
	return OrderDelivered
}

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderDelivered
}

// MoneyPlaces is the scale of every numeric(12,2) amount column.
const MoneyPlaces = 2

// IsCents reports whether d fits a money column without rounding.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}

type OrderType string

const (
	OrderStandard  OrderType = "standard"
	OrderQuickSale OrderType = "quick_sale"
)

type Order struct {
	ID              uuid.UUID           `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID        *uuid.UUID          `json:"client_id" gorm:"type:uuid;index"`
	ClientName      string              `json:"client_name"`
	Items           []OrderItem         `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Status          OrderStatus         `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	OrderType       OrderType           `json:"order_type" gorm:"type:varchar(20);not null;default:'standard'"`
	DeliveryDate    *time.Time          `json:"delivery_date"`
	Description     string              `json:"description" gorm:"type:text"`
	Deposit         decimal.NullDecimal `json:"deposit" gorm:"type:numeric(12,2)"`
	TotalPrice      decimal.Decimal     `json:"total_price" gorm:"type:numeric(12,2);not null"`
	TotalOverridden bool                `json:"total_overridden" gorm:"not null;default:false"`
	CreatedAt       time.Time           `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ItemsTotal sums quantity times unit price over the order lines.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Balance is what the client still owes after the deposit.
func (o *Order) Balance() decimal.Decimal {
	if !o.Deposit.Valid {
		return o.TotalPrice
	}
	return o.TotalPrice.Sub(o.Deposit.Decimal)
}

func (o *Order) IsQuickSale() bool {
	return o.OrderType == OrderQuickSale
}

// Matches searches client name, description and the names of the pieces on the order.
func (o *Order) Matches(query string, pieceNames map[uuid.UUID]string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(o.ClientName), q) ||
		strings.Contains(strings.ToLower(o.Description), q) {
		return true
	}
	for _, item := range o.Items {
		if strings.Contains(strings.ToLower(pieceNames[item.PieceID]), q) {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	PieceID      uuid.UUID       `json:"piece_id" gorm:"type:uuid;not null"`
	Position     int             `json:"position" gorm:"not null;default:0"`
	Quantity     int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	PricePerUnit decimal.Decimal `json:"price_per_unit" gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderPatch updates order header fields. A non-nil Items replaces every line.
type OrderPatch struct {
	ClientID        *uuid.UUID           `json:"client_id,omitempty"`
	ClientName      *string              `json:"client_name,omitempty"`
	Status          *OrderStatus         `json:"status,omitempty"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
	Description     *string              `json:"description,omitempty"`
	Deposit         *decimal.NullDecimal `json:"deposit,omitempty"`
	TotalPrice      *decimal.Decimal     `json:"total_price,omitempty"`
	TotalOverridden *bool                `json:"total_overridden,omitempty"`
	Items           *[]OrderItem         `json:"items,omitempty"`
}

func (op OrderPatch) Apply(o Order) Order {
	if op.ClientID != nil {
		id := *op.ClientID
		o.ClientID = &id
	}
	if op.ClientName != nil {
		o.ClientName = *op.ClientName
	}
	if op.Status != nil {
		o.Status = *op.Status
	}
	if op.DeliveryDate != nil {
		d := *op.DeliveryDate
		o.DeliveryDate = &d
	}
	if op.Description != nil {
		o.Description = *op.Description
	}
	if op.Deposit != nil {
		o.Deposit = *op.Deposit
	}
	if op.TotalPrice != nil {
		o.TotalPrice = *op.TotalPrice
	}
	if op.TotalOverridden != nil {
		o.TotalOverridden = *op.TotalOverridden
	}
	if op.Items != nil {
		o.Items = append([]OrderItem(nil), (*op.Items)...)
	}
	return o
}

// Columns excludes Items, which are written separately.
func (op OrderPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if op.ClientID != nil {
		cols["client_id"] = *op.ClientID
	}
	if op.ClientName != nil {
		cols["client_name"] = *op.ClientName
	}
	if op.Status != nil {
		cols["status"] = *op.Status
	}
	if op.DeliveryDate != nil {
		cols["delivery_date"] = *op.DeliveryDate
	}
	if op.Description != nil {
		cols["description"] = *op.Description
	}
	if op.Deposit != nil {
		cols["deposit"] = *op.Deposit
	}
	if op.TotalPrice != nil {
		cols["total_price"] = *op.TotalPrice
	}
	if op.TotalOverridden != nil {
		cols["total_overridden"] = *op.TotalOverridden
	}
	return cols
}
