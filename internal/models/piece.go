package models

import (
	"strings"
	"time"

	"artastic/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockPieces is the unit count under which a piece is flagged on the dashboard.
const LowStockPieces = 15

type Piece struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `json:"name" gorm:"not null;index"`
	Description    string          `json:"description" gorm:"type:text"`
	ImageURL       string          `json:"image_url"`
	Stock          int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" gorm:"type:numeric(12,2);not null"`
	RetailPrice    decimal.Decimal `json:"retail_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Piece) Validate() error {
	var errs apperr.ValidationErrors
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, apperr.Invalid("name", "El nombre es obligatorio"))
	}
	if p.Stock < 0 {
		errs = append(errs, apperr.Invalid("stock", "El stock debe ser un número positivo"))
	}
	if !p.WholesalePrice.IsPositive() {
		errs = append(errs, apperr.Invalid("wholesale_price", "El precio al por mayor debe ser un número positivo"))
	} else if !IsCents(p.WholesalePrice) {
		errs = append(errs, apperr.Invalid("wholesale_price", "El precio no puede tener más de 2 decimales"))
	}
	if !p.RetailPrice.IsPositive() {
		errs = append(errs, apperr.Invalid("retail_price", "El precio al por menor debe ser un número positivo"))
	} else if !IsCents(p.RetailPrice) {
		errs = append(errs, apperr.Invalid("retail_price", "El precio no puede tener más de 2 decimales"))
	}
	return errs.Err()
}

func (p *Piece) LowStock() bool {
	return p.Stock < LowStockPieces
}

// PiecePatch carries the fields of a partial update. Nil fields are left alone.
type PiecePatch struct {
	Name           *string          `json:"name,omitempty"`
	Description    *string          `json:"description,omitempty"`
	ImageURL       *string          `json:"image_url,omitempty"`
	Stock          *int             `json:"stock,omitempty"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price,omitempty"`
	RetailPrice    *decimal.Decimal `json:"retail_price,omitempty"`
}

// Apply returns a copy of p with the patch applied.
func (pp PiecePatch) Apply(p Piece) Piece {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
	if pp.Stock != nil {
		p.Stock = *pp.Stock
	}
	if pp.WholesalePrice != nil {
		p.WholesalePrice = *pp.WholesalePrice
	}
	if pp.RetailPrice != nil {
		p.RetailPrice = *pp.RetailPrice
	}
	return p
}

// Validate checks only the fields the patch sets.
func (pp PiecePatch) Validate() error {
	base := Piece{Name: "-", WholesalePrice: decimal.NewFromInt(1), RetailPrice: decimal.NewFromInt(1)}
	next := pp.Apply(base)
	return next.Validate()
}

// Columns lists the patched fields as a column map for gorm Updates.
func (pp PiecePatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if pp.Name != nil {
		cols["name"] = *pp.Name
	}
	if pp.Description != nil {
		cols["description"] = *pp.Description
	}
	if pp.ImageURL != nil {
		cols["image_url"] = *pp.ImageURL
	}
	if pp.Stock != nil {
		cols["stock"] = *pp.Stock
	}
	if pp.WholesalePrice != nil {
		cols["wholesale_price"] = *pp.WholesalePrice
	}
	if pp.RetailPrice != nil {
		cols["retail_price"] = *pp.RetailPrice
	}
	return cols
}
