package services

import (
	"context"
	"strings"

	"artastic/internal/models"
	"artastic/internal/store"

	"github.com/google/uuid"
)

// CatalogStore is the part of the state store that inventory and client
// handling drives.
type CatalogStore interface {
	Snapshot() store.Snapshot

	CreatePiece(ctx context.Context, piece models.Piece) (models.Piece, error)
	UpdatePiece(ctx context.Context, id uuid.UUID, patch models.PiecePatch) (models.Piece, error)
	DeletePiece(ctx context.Context, id uuid.UUID) error

	CreateFilament(ctx context.Context, filament models.Filament) (models.Filament, error)
	UpdateFilament(ctx context.Context, id uuid.UUID, patch models.FilamentPatch) (models.Filament, error)
	DeleteFilament(ctx context.Context, id uuid.UUID) error

	CreateClient(ctx context.Context, client models.Client) (models.Client, error)
	UpdateClient(ctx context.Context, id uuid.UUID, patch models.ClientPatch) (models.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

// CatalogService serves pieces, filaments and clients from the cache and
// routes writes through the store.
type CatalogService struct {
	CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{CatalogStore: store}
}

// SearchPieces filters cached pieces by name.
func (s *CatalogService) SearchPieces(query string) []models.Piece {
	q := strings.ToLower(strings.TrimSpace(query))
	pieces := s.Snapshot().Pieces
	out := make([]models.Piece, 0, len(pieces))
	for _, p := range pieces {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) Filaments() []models.Filament {
	return s.Snapshot().Filaments
}

// SearchClients filters cached clients by name, email or phone.
func (s *CatalogService) SearchClients(query string) []models.Client {
	clients := s.Snapshot().Clients
	out := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if c.Matches(query) {
			out = append(out, c)
		}
	}
	return out
}
