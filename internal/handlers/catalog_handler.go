package handlers

import (
	"net/http"
	"time"

	"artastic/internal/models"
	"artastic/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogHandler serves pieces, filaments and clients. Ids and timestamps
// sent with a create are dropped; the database assigns them.
type CatalogHandler struct {
	catalog *services.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Pieces

func (h *CatalogHandler) ListPieces(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.SearchPieces(c.Query("q")))
}

func (h *CatalogHandler) CreatePiece(c *gin.Context) {
	var piece models.Piece
	if !bindJSON(c, &piece) {
		return
	}
	piece.ID, piece.CreatedAt, piece.UpdatedAt = uuid.Nil, time.Time{}, time.Time{}
	created, err := h.catalog.CreatePiece(c.Request.Context(), piece)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdatePiece(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.PiecePatch
	if !bindJSON(c, &patch) {
		return
	}
	updated, err := h.catalog.UpdatePiece(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeletePiece(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeletePiece(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Filaments

func (h *CatalogHandler) ListFilaments(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Filaments())
}

func (h *CatalogHandler) CreateFilament(c *gin.Context) {
	var filament models.Filament
	if !bindJSON(c, &filament) {
		return
	}
	filament.ID, filament.CreatedAt, filament.UpdatedAt = uuid.Nil, time.Time{}, time.Time{}
	created, err := h.catalog.CreateFilament(c.Request.Context(), filament)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateFilament(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.FilamentPatch
	if !bindJSON(c, &patch) {
		return
	}
	updated, err := h.catalog.UpdateFilament(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteFilament(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteFilament(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clients

func (h *CatalogHandler) ListClients(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.SearchClients(c.Query("q")))
}

func (h *CatalogHandler) CreateClient(c *gin.Context) {
	var client models.Client
	if !bindJSON(c, &client) {
		return
	}
	client.ID, client.CreatedAt, client.UpdatedAt = uuid.Nil, time.Time{}, time.Time{}
	created, err := h.catalog.CreateClient(c.Request.Context(), client)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.ClientPatch
	if !bindJSON(c, &patch) {
		return
	}
	updated, err := h.catalog.UpdateClient(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteClient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
