package store

import (
	"context"
	"errors"
	"time"

	"artastic/internal/apperr"
	"artastic/internal/events"
	"artastic/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	fetchPieces    = operation{entity: "piece", name: "fetch", failure: "Error al cargar las piezas"}
	createPiece    = operation{entity: "piece", name: "created", success: "Pieza añadida correctamente", failure: "Error al añadir la pieza"}
	updatePiece    = operation{entity: "piece", name: "updated", success: "Pieza actualizada correctamente", failure: "Error al actualizar la pieza"}
	deletePiece    = operation{entity: "piece", name: "deleted", success: "Pieza eliminada correctamente", failure: "Error al eliminar la pieza"}
	fetchFilaments = operation{entity: "filament", name: "fetch", failure: "Error al cargar los filamentos"}
	createFilament = operation{entity: "filament", name: "created", success: "Filamento añadido correctamente", failure: "Error al añadir el filamento"}
	updateFilament = operation{entity: "filament", name: "updated", success: "Filamento actualizado correctamente", failure: "Error al actualizar el filamento"}
	deleteFilament = operation{entity: "filament", name: "deleted", success: "Filamento eliminado correctamente", failure: "Error al eliminar el filamento"}
	fetchClients   = operation{entity: "client", name: "fetch", failure: "Error al cargar los clientes"}
	createClient   = operation{entity: "client", name: "created", success: "Cliente añadido correctamente", failure: "Error al añadir el cliente"}
	updateClient   = operation{entity: "client", name: "updated", success: "Cliente actualizado correctamente", failure: "Error al actualizar el cliente"}
	deleteClient   = operation{entity: "client", name: "deleted", success: "Cliente eliminado correctamente", failure: "Error al eliminar el cliente"}
	fetchOrders    = operation{entity: "order", name: "fetch", failure: "Error al cargar los pedidos"}
	createOrder    = operation{entity: "order", name: "created", success: "Pedido añadido correctamente", failure: "Error al añadir el pedido"}
	updateOrder    = operation{entity: "order", name: "updated", success: "Pedido actualizado correctamente", failure: "Error al actualizar el pedido"}
	deleteOrder    = operation{entity: "order", name: "deleted", success: "Pedido eliminado correctamente", failure: "Error al eliminar el pedido"}
)

// LoadAll fetches every collection, as done once at startup.
func (s *Store) LoadAll(ctx context.Context) error {
	return errors.Join(
		s.FetchPieces(ctx),
		s.FetchFilaments(ctx),
		s.FetchClients(ctx),
		s.FetchOrders(ctx),
	)
}

// Pieces

func (s *Store) FetchPieces(ctx context.Context) error {
	return s.execute(ctx, fetchPieces, func(ctx context.Context) (Action, error) {
		pieces, err := s.repos.Pieces.GetAll(ctx)
		return PiecesLoaded{Pieces: pieces}, err
	})
}

func (s *Store) CreatePiece(ctx context.Context, piece models.Piece) (models.Piece, error) {
	if err := piece.Validate(); err != nil {
		return models.Piece{}, err
	}
	err := s.execute(ctx, createPiece, func(ctx context.Context) (Action, error) {
		err := s.repos.Pieces.Create(ctx, &piece)
		return PieceAdded{Piece: piece}, err
	})
	return piece, err
}

func (s *Store) UpdatePiece(ctx context.Context, id uuid.UUID, patch models.PiecePatch) (models.Piece, error) {
	if err := s.checkPiecePatch(id, patch); err != nil {
		return models.Piece{}, err
	}
	var updated models.Piece
	err := s.execute(ctx, updatePiece, func(ctx context.Context) (Action, error) {
		piece, err := s.repos.Pieces.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		updated = *piece
		return PieceUpdated{Piece: updated}, nil
	})
	return updated, err
}

func (s *Store) DeletePiece(ctx context.Context, id uuid.UUID) error {
	return s.execute(ctx, deletePiece, func(ctx context.Context) (Action, error) {
		return PieceRemoved{ID: id}, s.repos.Pieces.Delete(ctx, id)
	})
}

// Filaments

func (s *Store) FetchFilaments(ctx context.Context) error {
	return s.execute(ctx, fetchFilaments, func(ctx context.Context) (Action, error) {
		filaments, err := s.repos.Filaments.GetAll(ctx)
		return FilamentsLoaded{Filaments: filaments}, err
	})
}

func (s *Store) CreateFilament(ctx context.Context, filament models.Filament) (models.Filament, error) {
	if err := filament.Validate(); err != nil {
		return models.Filament{}, err
	}
	err := s.execute(ctx, createFilament, func(ctx context.Context) (Action, error) {
		err := s.repos.Filaments.Create(ctx, &filament)
		return FilamentAdded{Filament: filament}, err
	})
	return filament, err
}

func (s *Store) UpdateFilament(ctx context.Context, id uuid.UUID, patch models.FilamentPatch) (models.Filament, error) {
	if err := s.checkFilamentPatch(id, patch); err != nil {
		return models.Filament{}, err
	}
	var updated models.Filament
	err := s.execute(ctx, updateFilament, func(ctx context.Context) (Action, error) {
		filament, err := s.repos.Filaments.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		updated = *filament
		return FilamentUpdated{Filament: updated}, nil
	})
	return updated, err
}

func (s *Store) DeleteFilament(ctx context.Context, id uuid.UUID) error {
	return s.execute(ctx, deleteFilament, func(ctx context.Context) (Action, error) {
		return FilamentRemoved{ID: id}, s.repos.Filaments.Delete(ctx, id)
	})
}

// Clients

func (s *Store) FetchClients(ctx context.Context) error {
	return s.execute(ctx, fetchClients, func(ctx context.Context) (Action, error) {
		clients, err := s.repos.Clients.GetAll(ctx)
		return ClientsLoaded{Clients: clients}, err
	})
}

func (s *Store) CreateClient(ctx context.Context, client models.Client) (models.Client, error) {
	if err := client.Validate(); err != nil {
		return models.Client{}, err
	}
	err := s.execute(ctx, createClient, func(ctx context.Context) (Action, error) {
		err := s.repos.Clients.Create(ctx, &client)
		return ClientAdded{Client: client}, err
	})
	return client, err
}

func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, patch models.ClientPatch) (models.Client, error) {
	if err := s.checkClientPatch(id, patch); err != nil {
		return models.Client{}, err
	}
	var updated models.Client
	err := s.execute(ctx, updateClient, func(ctx context.Context) (Action, error) {
		client, err := s.repos.Clients.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		updated = *client
		return ClientUpdated{Client: updated}, nil
	})
	return updated, err
}

func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return s.execute(ctx, deleteClient, func(ctx context.Context) (Action, error) {
		return ClientRemoved{ID: id}, s.repos.Clients.Delete(ctx, id)
	})
}

// Orders

func (s *Store) FetchOrders(ctx context.Context) error {
	return s.execute(ctx, fetchOrders, func(ctx context.Context) (Action, error) {
		orders, err := s.repos.Orders.GetAll(ctx)
		return OrdersLoaded{Orders: orders}, err
	})
}

// CreateOrder persists the order together with its items.
func (s *Store) CreateOrder(ctx context.Context, order models.Order, items []models.OrderItem) (models.Order, error) {
	if err := validateOrder(order, items); err != nil {
		return models.Order{}, err
	}
	err := s.execute(ctx, createOrder, func(ctx context.Context) (Action, error) {
		err := s.repos.Orders.Create(ctx, &order, items)
		return OrderAdded{Order: order}, err
	})
	return order, err
}

func (s *Store) UpdateOrder(ctx context.Context, id uuid.UUID, patch models.OrderPatch) (models.Order, error) {
	if err := s.checkOrderPatch(id, patch); err != nil {
		return models.Order{}, err
	}
	var updated models.Order
	err := s.execute(ctx, updateOrder, func(ctx context.Context) (Action, error) {
		order, err := s.repos.Orders.Update(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		updated = *order
		return OrderUpdated{Order: updated}, nil
	})
	return updated, err
}

func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.execute(ctx, deleteOrder, func(ctx context.Context) (Action, error) {
		return OrderRemoved{ID: id}, s.repos.Orders.Delete(ctx, id)
	})
}

// Patches are validated against the cached row when there is one, and on
// their own fields otherwise.

func (s *Store) checkPiecePatch(id uuid.UUID, patch models.PiecePatch) error {
	if cached, ok := s.Snapshot().Piece(id); ok {
		next := patch.Apply(cached)
		return next.Validate()
	}
	return patch.Validate()
}

func (s *Store) checkFilamentPatch(id uuid.UUID, patch models.FilamentPatch) error {
	if cached, ok := s.Snapshot().Filament(id); ok {
		next := patch.Apply(cached)
		return next.Validate()
	}
	return patch.Validate()
}

func (s *Store) checkClientPatch(id uuid.UUID, patch models.ClientPatch) error {
	if cached, ok := s.Snapshot().Client(id); ok {
		next := patch.Apply(cached)
		return next.Validate()
	}
	return patch.Validate()
}

func (s *Store) checkOrderPatch(id uuid.UUID, patch models.OrderPatch) error {
	base, ok := s.Snapshot().Order(id)
	if !ok {
		base = orderPlaceholder(patch)
	}
	next := patch.Apply(base)
	return validateOrder(next, next.Items)
}

// orderPlaceholder stands in for an uncached order: it passes every check
// on its own, so only the fields the patch sets can fail.
func orderPlaceholder(patch models.OrderPatch) models.Order {
	order := models.Order{
		Status:      models.OrderPending,
		Description: "-",
		Items:       []models.OrderItem{{Quantity: 1, PricePerUnit: decimal.NewFromInt(1)}},
		TotalPrice:  decimal.Zero,
	}
	if patch.TotalPrice == nil && patch.Deposit != nil && patch.Deposit.Valid && patch.Deposit.Decimal.IsPositive() {
		order.TotalPrice = patch.Deposit.Decimal
	}
	return order
}

// validateOrder re-checks the invariants an order must hold before it is
// written, whatever built it.
func validateOrder(order models.Order, items []models.OrderItem) error {
	var errs apperr.ValidationErrors
	if !order.Status.Valid() {
		errs = append(errs, apperr.Invalid("status", "Estado de pedido inválido"))
	}
	if len(items) == 0 && order.Description == "" {
		errs = append(errs, apperr.Invalid("items", "Debes añadir al menos un producto o una descripción"))
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			errs = append(errs, apperr.Invalid("quantity", "La cantidad debe ser un número positivo"))
			break
		}
		if !item.PricePerUnit.IsPositive() {
			errs = append(errs, apperr.Invalid("price", "El precio debe ser un número positivo"))
			break
		}
		if !models.IsCents(item.PricePerUnit) {
			errs = append(errs, apperr.Invalid("price", "El precio no puede tener más de 2 decimales"))
			break
		}
	}
	if order.TotalPrice.IsNegative() {
		errs = append(errs, apperr.Invalid("total", "El total debe ser un número positivo"))
	} else if !models.IsCents(order.TotalPrice) {
		errs = append(errs, apperr.Invalid("total", "El total no puede tener más de 2 decimales"))
	}
	if order.Deposit.Valid {
		if order.Deposit.Decimal.IsNegative() {
			errs = append(errs, apperr.Invalid("deposit", "La seña no puede ser negativa"))
		} else if !models.IsCents(order.Deposit.Decimal) {
			errs = append(errs, apperr.Invalid("deposit", "La seña no puede tener más de 2 decimales"))
		} else if order.Deposit.Decimal.GreaterThan(order.TotalPrice) {
			errs = append(errs, apperr.Invalid("deposit", "La seña no puede ser mayor que el total del pedido"))
		}
	}
	return errs.Err()
}

func eventFor(op operation, result Action) events.Event {
	event := events.Event{Entity: op.entity, Op: op.name, OccurredAt: time.Now()}
	switch a := result.(type) {
	case PieceAdded:
		event.EntityID, event.Payload = a.Piece.ID.String(), a.Piece
	case PieceUpdated:
		event.EntityID, event.Payload = a.Piece.ID.String(), a.Piece
	case PieceRemoved:
		event.EntityID = a.ID.String()
	case FilamentAdded:
		event.EntityID, event.Payload = a.Filament.ID.String(), a.Filament
	case FilamentUpdated:
		event.EntityID, event.Payload = a.Filament.ID.String(), a.Filament
	case FilamentRemoved:
		event.EntityID = a.ID.String()
	case ClientAdded:
		event.EntityID, event.Payload = a.Client.ID.String(), a.Client
	case ClientUpdated:
		event.EntityID, event.Payload = a.Client.ID.String(), a.Client
	case ClientRemoved:
		event.EntityID = a.ID.String()
	case OrderAdded:
		event.EntityID, event.Payload = a.Order.ID.String(), a.Order
	case OrderUpdated:
		event.EntityID, event.Payload = a.Order.ID.String(), a.Order
	case OrderRemoved:
		event.EntityID = a.ID.String()
	case Batch:
		for _, inner := range a.Actions {
			if added, ok := inner.(OrderAdded); ok {
				event.EntityID, event.Payload = added.Order.ID.String(), added.Order
			}
		}
	}
	return event
}
