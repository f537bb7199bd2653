package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"artastic/internal/notify"
	"artastic/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StateSource is the state store as seen by the front end.
type StateSource interface {
	Snapshot() store.Snapshot
	ClearError() store.Snapshot
}

type Preferences interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type NotificationFeed interface {
	Since(after uint64) []notify.Notification
}

// Pinger is a dependency probed by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// StateHandler exposes the cached state, the user preferences, the
// notification feed and the health check.
type StateHandler struct {
	state  StateSource
	prefs  Preferences
	feed   NotificationFeed
	checks map[string]Pinger
	logger *zap.Logger
}

func NewStateHandler(state StateSource, prefs Preferences, feed NotificationFeed, checks map[string]Pinger, logger *zap.Logger) *StateHandler {
	return &StateHandler{state: state, prefs: prefs, feed: feed, checks: checks, logger: logger}
}

func (h *StateHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Snapshot())
}

func (h *StateHandler) ClearError(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.ClearError())
}

func (h *StateHandler) GetPreference(c *gin.Context) {
	key := c.Param("key")
	value, err := h.prefs.Get(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

type preferenceRequest struct {
	Value string `json:"value" binding:"required"`
}

func (h *StateHandler) SetPreference(c *gin.Context) {
	var req preferenceRequest
	if !bindJSON(c, &req) {
		return
	}
	key := c.Param("key")
	if err := h.prefs.Set(c.Request.Context(), key, req.Value); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// Notifications answers GET /api/notifications?after=<id>.
func (h *StateHandler) Notifications(c *gin.Context) {
	var after uint64
	if raw := c.Query("after"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Parámetro after inválido")
			return
		}
		after = parsed
	}
	c.JSON(http.StatusOK, h.feed.Since(after))
}

func (h *StateHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(gin.H, len(h.checks))
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"checks":  checks,
		"version": h.state.Snapshot().Version,
	})
}
