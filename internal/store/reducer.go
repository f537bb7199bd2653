package store

import (
	"artastic/internal/models"

	"github.com/google/uuid"
)

// Snapshot is an immutable view of the cached shop data. Reduce never
// mutates a snapshot or the slices it holds.
type Snapshot struct {
	Pieces    []models.Piece    `json:"pieces"`
	Filaments []models.Filament `json:"filaments"`
	Clients   []models.Client   `json:"clients"`
	Orders    []models.Order    `json:"orders"`
	Loading   bool              `json:"loading"`
	Error     string            `json:"error,omitempty"`
	Version   uint64            `json:"version"`

	inFlight int
}

// Action is a state transition. Only the types in this file implement it.
type Action interface {
	action()
}

type (
	// Begin marks one more operation in flight.
	Begin struct{}
	// End marks one operation finished, successful or not.
	End struct{}
	// Fail records a user-facing error message.
	Fail struct{ Message string }
	// ClearError drops the current error message.
	ClearError struct{}
	// Batch applies several actions as one transition.
	Batch struct{ Actions []Action }

	PiecesLoaded struct{ Pieces []models.Piece }
	PieceAdded   struct{ Piece models.Piece }
	PieceUpdated struct{ Piece models.Piece }
	PieceRemoved struct{ ID uuid.UUID }

	FilamentsLoaded struct{ Filaments []models.Filament }
	FilamentAdded   struct{ Filament models.Filament }
	FilamentUpdated struct{ Filament models.Filament }
	FilamentRemoved struct{ ID uuid.UUID }

	ClientsLoaded struct{ Clients []models.Client }
	ClientAdded   struct{ Client models.Client }
	ClientUpdated struct{ Client models.Client }
	ClientRemoved struct{ ID uuid.UUID }

	OrdersLoaded struct{ Orders []models.Order }
	OrderAdded   struct{ Order models.Order }
	OrderUpdated struct{ Order models.Order }
	OrderRemoved struct{ ID uuid.UUID }
)

func (Begin) action()      {}
func (End) action()        {}
func (Fail) action()       {}
func (ClearError) action() {}
func (Batch) action()      {}

func (PiecesLoaded) action() {}
func (PieceAdded) action()   {}
func (PieceUpdated) action() {}
func (PieceRemoved) action() {}

func (FilamentsLoaded) action() {}
func (FilamentAdded) action()   {}
func (FilamentUpdated) action() {}
func (FilamentRemoved) action() {}

func (ClientsLoaded) action() {}
func (ClientAdded) action()   {}
func (ClientUpdated) action() {}
func (ClientRemoved) action() {}

func (OrdersLoaded) action() {}
func (OrderAdded) action()   {}
func (OrderUpdated) action() {}
func (OrderRemoved) action() {}

// Reduce returns the snapshot that results from applying a to s.
func Reduce(s Snapshot, a Action) Snapshot {
	next := s
	next.Version++

	switch a := a.(type) {
	case Begin:
		next.inFlight++
	case End:
		if next.inFlight > 0 {
			next.inFlight--
		}
	case Fail:
		next.Error = a.Message
	case ClearError:
		next.Error = ""
	case Batch:
		for _, inner := range a.Actions {
			next = Reduce(next, inner)
		}
		next.Version = s.Version + 1

	case PiecesLoaded:
		next.Pieces = clone(a.Pieces)
	case PieceAdded:
		next.Pieces = appended(s.Pieces, a.Piece)
	case PieceUpdated:
		next.Pieces = replaced(s.Pieces, a.Piece, func(p models.Piece) uuid.UUID { return p.ID })
	case PieceRemoved:
		next.Pieces = removed(s.Pieces, a.ID, func(p models.Piece) uuid.UUID { return p.ID })

	case FilamentsLoaded:
		next.Filaments = clone(a.Filaments)
	case FilamentAdded:
		next.Filaments = appended(s.Filaments, a.Filament)
	case FilamentUpdated:
		next.Filaments = replaced(s.Filaments, a.Filament, func(f models.Filament) uuid.UUID { return f.ID })
	case FilamentRemoved:
		next.Filaments = removed(s.Filaments, a.ID, func(f models.Filament) uuid.UUID { return f.ID })

	case ClientsLoaded:
		next.Clients = clone(a.Clients)
	case ClientAdded:
		next.Clients = appended(s.Clients, a.Client)
	case ClientUpdated:
		next.Clients = replaced(s.Clients, a.Client, func(c models.Client) uuid.UUID { return c.ID })
	case ClientRemoved:
		next.Clients = removed(s.Clients, a.ID, func(c models.Client) uuid.UUID { return c.ID })

	case OrdersLoaded:
		next.Orders = clone(a.Orders)
	case OrderAdded:
		// Newest order goes first, matching the server ordering.
		next.Orders = append([]models.Order{a.Order}, s.Orders...)
	case OrderUpdated:
		next.Orders = replaced(s.Orders, a.Order, func(o models.Order) uuid.UUID { return o.ID })
	case OrderRemoved:
		next.Orders = removed(s.Orders, a.ID, func(o models.Order) uuid.UUID { return o.ID })

	default:
		next.Version--
		return next
	}

	next.Loading = next.inFlight > 0
	return next
}

func clone[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return append(make([]T, 0, len(in)), in...)
}

func appended[T any](in []T, v T) []T {
	out := make([]T, 0, len(in)+1)
	out = append(out, in...)
	return append(out, v)
}

func replaced[T any](in []T, v T, id func(T) uuid.UUID) []T {
	out := make([]T, len(in))
	for i, cur := range in {
		if id(cur) == id(v) {
			out[i] = v
		} else {
			out[i] = cur
		}
	}
	return out
}

func removed[T any](in []T, target uuid.UUID, id func(T) uuid.UUID) []T {
	out := make([]T, 0, len(in))
	for _, cur := range in {
		if id(cur) != target {
			out = append(out, cur)
		}
	}
	return out
}

func find[T any](in []T, target uuid.UUID, id func(T) uuid.UUID) (T, bool) {
	for _, cur := range in {
		if id(cur) == target {
			return cur, true
		}
	}
	var zero T
	return zero, false
}

func (s Snapshot) Piece(id uuid.UUID) (models.Piece, bool) {
	return find(s.Pieces, id, func(p models.Piece) uuid.UUID { return p.ID })
}

func (s Snapshot) Filament(id uuid.UUID) (models.Filament, bool) {
	return find(s.Filaments, id, func(f models.Filament) uuid.UUID { return f.ID })
}

func (s Snapshot) Client(id uuid.UUID) (models.Client, bool) {
	return find(s.Clients, id, func(c models.Client) uuid.UUID { return c.ID })
}

func (s Snapshot) Order(id uuid.UUID) (models.Order, bool) {
	return find(s.Orders, id, func(o models.Order) uuid.UUID { return o.ID })
}

// PieceNames maps every cached piece to its name.
func (s Snapshot) PieceNames() map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(s.Pieces))
	for _, p := range s.Pieces {
		names[p.ID] = p.Name
	}
	return names
}

// PieceIndex maps every cached piece by ID.
func (s Snapshot) PieceIndex() map[uuid.UUID]models.Piece {
	index := make(map[uuid.UUID]models.Piece, len(s.Pieces))
	for _, p := range s.Pieces {
		index[p.ID] = p
	}
	return index
}
