package models

import (
	"strings"
	"time"

	"artastic/internal/apperr"

	"github.com/google/uuid"
)

// LowStockGrams is the spool weight under which a filament is flagged.
const LowStockGrams = 500

type Filament struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type      string    `json:"type" gorm:"not null;index"`
	Color     string    `json:"color" gorm:"not null"`
	Stock     int       `json:"stock" gorm:"not null;default:0;check:stock >= 0"` // grams
	Supplier  string    `json:"supplier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Filament) Validate() error {
	var errs apperr.ValidationErrors
	if strings.TrimSpace(f.Type) == "" {
		errs = append(errs, apperr.Invalid("type", "El tipo es obligatorio"))
	}
	if strings.TrimSpace(f.Color) == "" {
		errs = append(errs, apperr.Invalid("color", "El color es obligatorio"))
	}
	if f.Stock < 0 {
		errs = append(errs, apperr.Invalid("stock", "El stock debe ser un número positivo"))
	}
	return errs.Err()
}

func (f *Filament) LowStock() bool {
	return f.Stock < LowStockGrams
}

type FilamentPatch struct {
	Type     *string `json:"type,omitempty"`
	Color    *string `json:"color,omitempty"`
	Stock    *int    `json:"stock,omitempty"`
	Supplier *string `json:"supplier,omitempty"`
}

// Validate checks only the fields the patch sets.
func (fp FilamentPatch) Validate() error {
	next := fp.Apply(Filament{Type: "-", Color: "-"})
	return next.Validate()
}

func (fp FilamentPatch) Apply(f Filament) Filament {
	if fp.Type != nil {
		f.Type = *fp.Type
	}
	if fp.Color != nil {
		f.Color = *fp.Color
	}
	if fp.Stock != nil {
		f.Stock = *fp.Stock
	}
	if fp.Supplier != nil {
		f.Supplier = *fp.Supplier
	}
	return f
}

func (fp FilamentPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if fp.Type != nil {
		cols["type"] = *fp.Type
	}
	if fp.Color != nil {
		cols["color"] = *fp.Color
	}
	if fp.Stock != nil {
		cols["stock"] = *fp.Stock
	}
	if fp.Supplier != nil {
		cols["supplier"] = *fp.Supplier
	}
	return cols
}
