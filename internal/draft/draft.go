package draft

import (
	"fmt"
	"strings"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one entry of the draft. The same piece may appear on several lines.
type Line struct {
	PieceID   uuid.UUID       `json:"piece_id"`
	PieceName string          `json:"piece_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price_per_unit"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Content is what an order is made of: Itemized lines or only a Described request.
type Content interface {
	content()
}

type Itemized struct {
	Lines []Line
}

type Described struct {
	Description string
}

func (Itemized) content()  {}
func (Described) content() {}

// Draft is a standard order being composed before submission.
type Draft struct {
	ClientID     *uuid.UUID
	ClientName   string
	Status       models.OrderStatus
	DeliveryDate time.Time
	Description  string
	DepositInput string

	lines []Line
	total TotalState
}

func New(now time.Time) *Draft {
	return &Draft{
		Status:       models.OrderPending,
		DeliveryDate: now,
		total:        Computed(),
	}
}

// FromOrder rebuilds a draft from a stored order so it can be edited.
func FromOrder(order models.Order, pieces map[uuid.UUID]models.Piece) *Draft {
	d := &Draft{
		ClientName:  order.ClientName,
		Status:      order.Status,
		Description: order.Description,
		total:       Computed(),
	}
	if order.ClientID != nil {
		id := *order.ClientID
		d.ClientID = &id
	}
	if order.DeliveryDate != nil {
		d.DeliveryDate = *order.DeliveryDate
	} else {
		d.DeliveryDate = order.CreatedAt
	}
	if order.Deposit.Valid {
		d.DepositInput = order.Deposit.Decimal.StringFixed(2)
	}
	for _, item := range order.Items {
		d.lines = append(d.lines, Line{
			PieceID:   item.PieceID,
			PieceName: pieces[item.PieceID].Name,
			Quantity:  item.Quantity,
			UnitPrice: item.PricePerUnit,
		})
	}
	if order.TotalOverridden {
		d.total = Overridden(order.TotalPrice)
	}
	return d
}

func (d *Draft) SelectClient(client *models.Client) {
	if client == nil {
		d.ClientID = nil
		d.ClientName = ""
		return
	}
	id := client.ID
	d.ClientID = &id
	d.ClientName = client.Name
}

// AddItem appends a line. A blank price falls back to the piece retail price.
func (d *Draft) AddItem(piece *models.Piece, quantity int, price decimal.NullDecimal) error {
	line, err := newLine(piece, quantity, price, "Solo hay %d unidades disponibles de este producto")
	if err != nil {
		return err
	}
	d.lines = append(d.lines, line)
	d.total = Computed()
	return nil
}

func (d *Draft) UpdateItem(index int, piece *models.Piece, quantity int, price decimal.NullDecimal) error {
	if index < 0 || index >= len(d.lines) {
		return apperr.Invalid("item", "El producto seleccionado no existe")
	}
	line, err := newLine(piece, quantity, price, "Solo hay %d unidades disponibles de este producto")
	if err != nil {
		return err
	}
	d.lines[index] = line
	d.total = Computed()
	return nil
}

// RemoveItem drops the line at index and leaves the others in place.
func (d *Draft) RemoveItem(index int) error {
	if index < 0 || index >= len(d.lines) {
		return apperr.Invalid("item", "El producto seleccionado no existe")
	}
	d.lines = append(d.lines[:index:index], d.lines[index+1:]...)
	d.total = Computed()
	return nil
}

func (d *Draft) Lines() []Line {
	return append([]Line(nil), d.lines...)
}

// OverrideTotal makes value authoritative until the lines change again.
func (d *Draft) OverrideTotal(value decimal.Decimal) error {
	if value.IsNegative() {
		return apperr.Invalid("total", "El total debe ser un número positivo")
	}
	if !models.IsCents(value) {
		return apperr.Invalid("total", "El total no puede tener más de 2 decimales")
	}
	d.total = Overridden(value)
	return nil
}

func (d *Draft) ClearOverride() {
	d.total = Computed()
}

func (d *Draft) TotalState() TotalState {
	return d.total
}

func (d *Draft) ComputedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range d.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func (d *Draft) Total() decimal.Decimal {
	return d.total.Resolve(d.ComputedTotal())
}

// Content reports what the order consists of, or an error when it has neither lines nor a description.
func (d *Draft) Content() (Content, error) {
	if len(d.lines) > 0 {
		return Itemized{Lines: d.Lines()}, nil
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		return Described{Description: desc}, nil
	}
	return nil, apperr.Invalid("items", "Debes añadir al menos un producto o una descripción")
}

// Deposit parses the deposit input. Blank and zero mean no deposit.
func (d *Draft) Deposit() (decimal.NullDecimal, error) {
	raw := strings.TrimSpace(strings.ReplaceAll(d.DepositInput, ",", "."))
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, apperr.Invalid("deposit", "La seña debe ser un número válido")
	}
	if amount.IsNegative() {
		return decimal.NullDecimal{}, apperr.Invalid("deposit", "La seña no puede ser negativa")
	}
	if !models.IsCents(amount) {
		return decimal.NullDecimal{}, apperr.Invalid("deposit", "La seña no puede tener más de 2 decimales")
	}
	if amount.IsZero() {
		return decimal.NullDecimal{}, nil
	}
	if amount.GreaterThan(d.Total()) {
		return decimal.NullDecimal{}, apperr.Invalid("deposit", "La seña no puede ser mayor que el total del pedido")
	}
	return decimal.NewNullDecimal(amount), nil
}

// Validate checks everything a standard order needs before it is sent.
func (d *Draft) Validate() error {
	var errs apperr.ValidationErrors
	if d.ClientID == nil {
		errs = append(errs, apperr.Invalid("client", "Debes seleccionar un cliente"))
	}
	if !d.Status.Valid() {
		errs = append(errs, apperr.Invalid("status", "Estado de pedido inválido"))
	}
	if _, err := d.Content(); err != nil {
		errs = append(errs, err.(*apperr.ValidationError))
	}
	if _, err := d.Deposit(); err != nil {
		errs = append(errs, err.(*apperr.ValidationError))
	}
	return errs.Err()
}

// Build validates the draft and produces the order row and its items.
func (d *Draft) Build() (models.Order, []models.OrderItem, error) {
	if err := d.Validate(); err != nil {
		return models.Order{}, nil, err
	}
	deposit, _ := d.Deposit()
	delivery := d.DeliveryDate
	clientID := *d.ClientID

	order := models.Order{
		ClientID:        &clientID,
		ClientName:      d.ClientName,
		Status:          d.Status,
		OrderType:       models.OrderStandard,
		DeliveryDate:    &delivery,
		Description:     strings.TrimSpace(d.Description),
		Deposit:         deposit,
		TotalPrice:      d.Total(),
		TotalOverridden: d.total.IsOverridden(),
	}

	items := make([]models.OrderItem, 0, len(d.lines))
	for i, l := range d.lines {
		items = append(items, models.OrderItem{
			PieceID:      l.PieceID,
			Position:     i,
			Quantity:     l.Quantity,
			PricePerUnit: l.UnitPrice,
		})
	}
	return order, items, nil
}

// Patch turns the built draft into a full replacement of an existing order.
func (d *Draft) Patch() (models.OrderPatch, error) {
	order, items, err := d.Build()
	if err != nil {
		return models.OrderPatch{}, err
	}
	return models.OrderPatch{
		ClientID:        order.ClientID,
		ClientName:      &order.ClientName,
		Status:          &order.Status,
		DeliveryDate:    order.DeliveryDate,
		Description:     &order.Description,
		Deposit:         &order.Deposit,
		TotalPrice:      &order.TotalPrice,
		TotalOverridden: &order.TotalOverridden,
		Items:           &items,
	}, nil
}

func newLine(piece *models.Piece, quantity int, price decimal.NullDecimal, stockMsg string) (Line, error) {
	if piece == nil {
		return Line{}, apperr.Invalid("piece", "Debes seleccionar un producto")
	}
	if quantity <= 0 {
		return Line{}, apperr.Invalid("quantity", "La cantidad debe ser un número positivo")
	}
	if quantity > piece.Stock {
		return Line{}, apperr.Invalid("quantity", fmt.Sprintf(stockMsg, piece.Stock))
	}
	unit := piece.RetailPrice
	if price.Valid {
		unit = price.Decimal
	}
	if !unit.IsPositive() {
		return Line{}, apperr.Invalid("price", "El precio debe ser un número positivo")
	}
	if !models.IsCents(unit) {
		return Line{}, apperr.Invalid("price", "El precio no puede tener más de 2 decimales")
	}
	return Line{
		PieceID:   piece.ID,
		PieceName: piece.Name,
		Quantity:  quantity,
		UnitPrice: unit,
	}, nil
}
