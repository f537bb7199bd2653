package services

import (
	"context"
	"strings"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/draft"
	"artastic/internal/models"
	"artastic/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStore is the part of the state store that order handling drives.
type OrderStore interface {
	Snapshot() store.Snapshot
	CreateOrder(ctx context.Context, order models.Order, items []models.OrderItem) (models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	RecordQuickSale(ctx context.Context, order models.Order, item models.OrderItem) (models.Order, models.Piece, error)
}

type OrderFilter string

const (
	FilterAll       OrderFilter = "all"
	FilterPending   OrderFilter = "pending"
	FilterDelivered OrderFilter = "delivered"
	FilterQuickSale OrderFilter = "quick_sale"
)

func ParseOrderFilter(s string) (OrderFilter, error) {
	switch f := OrderFilter(s); f {
	case FilterAll, FilterPending, FilterDelivered, FilterQuickSale:
		return f, nil
	case "":
		return FilterAll, nil
	}
	return "", apperr.Invalid("filter", "Filtro de pedidos desconocido")
}

type ItemRequest struct {
	PieceID   uuid.UUID           `json:"piece_id"`
	Quantity  int                 `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

// DraftRequest is an order form as submitted by the front end.
type DraftRequest struct {
	ClientID      *uuid.UUID          `json:"client_id"`
	Status        models.OrderStatus  `json:"status"`
	DeliveryDate  *time.Time          `json:"delivery_date"`
	Description   string              `json:"description"`
	Deposit       string              `json:"deposit"`
	Items         []ItemRequest       `json:"items"`
	TotalOverride decimal.NullDecimal `json:"total_override"`
}

type QuickSaleRequest struct {
	PieceID   uuid.UUID           `json:"piece_id"`
	Quantity  int                 `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Note      string              `json:"note"`
}

// Preview is the live summary shown while an order form is edited.
type Preview struct {
	Lines         []draft.Line              `json:"lines"`
	ComputedTotal decimal.Decimal           `json:"computed_total"`
	Total         decimal.Decimal           `json:"total"`
	TotalState    draft.TotalState          `json:"total_state"`
	Deposit       decimal.NullDecimal       `json:"deposit"`
	Balance       decimal.Decimal           `json:"balance"`
	Valid         bool                      `json:"valid"`
	Errors        []*apperr.ValidationError `json:"errors,omitempty"`
}

type QuickSaleResult struct {
	Order models.Order `json:"order"`
	Piece models.Piece `json:"piece"`
}

type OrderService interface {
	List(filter OrderFilter, query string) []models.Order
	Get(id uuid.UUID) (models.Order, error)
	Preview(req DraftRequest) (*Preview, error)
	Submit(ctx context.Context, req DraftRequest) (models.Order, error)
	Update(ctx context.Context, id uuid.UUID, req DraftRequest) (models.Order, error)
	ToggleStatus(ctx context.Context, id uuid.UUID) (models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	QuickSale(ctx context.Context, req QuickSaleRequest) (*QuickSaleResult, error)
}

type orderService struct {
	store OrderStore
	now   func() time.Time
}

func NewOrderService(store OrderStore) OrderService {
	return &orderService{store: store, now: time.Now}
}

// List returns cached orders, newest first, narrowed by filter and a text query.
func (s *orderService) List(filter OrderFilter, query string) []models.Order {
	snap := s.store.Snapshot()
	names := snap.PieceNames()

	out := make([]models.Order, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if !matchesFilter(o, filter) || !o.Matches(query, names) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesFilter(o models.Order, filter OrderFilter) bool {
	switch filter {
	case FilterPending:
		return o.Status == models.OrderPending
	case FilterDelivered:
		return o.Status == models.OrderDelivered && !o.IsQuickSale()
	case FilterQuickSale:
		return o.IsQuickSale()
	default:
		return true
	}
}

func (s *orderService) Get(id uuid.UUID) (models.Order, error) {
	order, ok := s.store.Snapshot().Order(id)
	if !ok {
		return models.Order{}, &apperr.NotFoundError{Entity: "order", ID: id.String()}
	}
	return order, nil
}

// compose replays a submitted form onto a fresh draft.
func (s *orderService) compose(req DraftRequest, snap store.Snapshot) (*draft.Draft, error) {
	d := draft.New(s.now())
	if req.ClientID != nil {
		client, ok := snap.Client(*req.ClientID)
		if !ok {
			return nil, apperr.Invalid("client", "El cliente seleccionado no existe")
		}
		d.SelectClient(&client)
	}
	if req.Status != "" {
		d.Status = req.Status
	}
	if req.DeliveryDate != nil {
		d.DeliveryDate = *req.DeliveryDate
	}
	d.Description = req.Description
	d.DepositInput = req.Deposit

	for _, item := range req.Items {
		var piece *models.Piece
		if p, ok := snap.Piece(item.PieceID); ok {
			piece = &p
		}
		if err := d.AddItem(piece, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if req.TotalOverride.Valid {
		if err := d.OverrideTotal(req.TotalOverride.Decimal); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *orderService) Preview(req DraftRequest) (*Preview, error) {
	d, err := s.compose(req, s.store.Snapshot())
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Lines:         d.Lines(),
		ComputedTotal: d.ComputedTotal(),
		Total:         d.Total(),
		TotalState:    d.TotalState(),
		Balance:       d.Total(),
		Valid:         true,
	}
	if deposit, err := d.Deposit(); err == nil {
		p.Deposit = deposit
		if deposit.Valid {
			p.Balance = p.Total.Sub(deposit.Decimal)
		}
	}
	if err := d.Validate(); err != nil {
		p.Valid = false
		p.Errors = apperr.Fields(err)
	}
	return p, nil
}

func (s *orderService) Submit(ctx context.Context, req DraftRequest) (models.Order, error) {
	d, err := s.compose(req, s.store.Snapshot())
	if err != nil {
		return models.Order{}, err
	}
	order, items, err := d.Build()
	if err != nil {
		return models.Order{}, err
	}
	return s.store.CreateOrder(ctx, order, items)
}

// Update replaces the header and every line of an existing order.
func (s *orderService) Update(ctx context.Context, id uuid.UUID, req DraftRequest) (models.Order, error) {
	snap := s.store.Snapshot()
	if _, ok := snap.Order(id); !ok {
		return models.Order{}, &apperr.NotFoundError{Entity: "order", ID: id.String()}
	}
	d, err := s.compose(req, snap)
	if err != nil {
		return models.Order{}, err
	}
	patch, err := d.Patch()
	if err != nil {
		return models.Order{}, err
	}
	return s.store.UpdateOrder(ctx, id, patch)
}

func (s *orderService) ToggleStatus(ctx context.Context, id uuid.UUID) (models.Order, error) {
	order, err := s.Get(id)
	if err != nil {
		return models.Order{}, err
	}
	next := order.Status.Toggle()
	return s.store.UpdateOrder(ctx, id, models.OrderPatch{Status: &next})
}

func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteOrder(ctx, id)
}

func (s *orderService) QuickSale(ctx context.Context, req QuickSaleRequest) (*QuickSaleResult, error) {
	sale := draft.QuickSale{
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Note:      strings.TrimSpace(req.Note),
	}
	if piece, ok := s.store.Snapshot().Piece(req.PieceID); ok {
		sale.Piece = &piece
	}

	order, item, err := sale.Build(s.now())
	if err != nil {
		return nil, err
	}
	created, piece, err := s.store.RecordQuickSale(ctx, order, item)
	if err != nil {
		return nil, err
	}
	return &QuickSaleResult{Order: created, Piece: piece}, nil
}
