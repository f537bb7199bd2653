package repository

import "gorm.io/gorm"

// Gateway groups the per-table repositories behind one handle.
type Gateway struct {
	Pieces    PieceRepository
	Filaments FilamentRepository
	Clients   ClientRepository
	Orders    OrderRepository
	Users     UserRepository
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{
		Pieces:    NewPieceRepository(db),
		Filaments: NewFilamentRepository(db),
		Clients:   NewClientRepository(db),
		Orders:    NewOrderRepository(db),
		Users:     NewUserRepository(db),
	}
}
