package handlers

import (
	"net/http"

	"artastic/internal/middleware"
	"artastic/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Router collects everything the HTTP surface is built from.
type Router struct {
	Auth      services.AuthService
	Logger    *zap.Logger
	AuthH     *AuthHandler
	Catalog   *CatalogHandler
	Orders    *OrderHandler
	Sales     *SalesHandler
	State     *StateHandler
	WebSocket http.HandlerFunc
}

// Engine wires the routes. Everything below /api except login needs a session.
func (r Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(r.Logger), middleware.CORS())

	engine.GET("/health", r.State.Health)

	loginLimiter := middleware.NewRateLimiter(rate.Limit(1), 5)
	engine.POST("/api/auth/login", loginLimiter.Middleware(), r.AuthH.Login)

	api := engine.Group("/api", middleware.Auth(r.Auth))
	{
		api.POST("/auth/logout", r.AuthH.Logout)
		api.GET("/auth/session", r.AuthH.Session)

		api.GET("/state", r.State.State)
		api.DELETE("/state/error", r.State.ClearError)
		api.GET("/preferences/:key", r.State.GetPreference)
		api.PUT("/preferences/:key", r.State.SetPreference)
		api.GET("/notifications", r.State.Notifications)

		api.GET("/pieces", r.Catalog.ListPieces)
		api.POST("/pieces", r.Catalog.CreatePiece)
		api.PATCH("/pieces/:id", r.Catalog.UpdatePiece)
		api.DELETE("/pieces/:id", r.Catalog.DeletePiece)

		api.GET("/filaments", r.Catalog.ListFilaments)
		api.POST("/filaments", r.Catalog.CreateFilament)
		api.PATCH("/filaments/:id", r.Catalog.UpdateFilament)
		api.DELETE("/filaments/:id", r.Catalog.DeleteFilament)

		api.GET("/clients", r.Catalog.ListClients)
		api.POST("/clients", r.Catalog.CreateClient)
		api.PATCH("/clients/:id", r.Catalog.UpdateClient)
		api.DELETE("/clients/:id", r.Catalog.DeleteClient)

		api.GET("/orders", r.Orders.List)
		api.POST("/orders", r.Orders.Create)
		api.POST("/orders/preview", r.Orders.Preview)
		api.POST("/orders/quick-sale", r.Orders.QuickSale)
		api.GET("/orders/:id", r.Orders.Get)
		api.PUT("/orders/:id", r.Orders.Update)
		api.PATCH("/orders/:id/status", r.Orders.ToggleStatus)
		api.DELETE("/orders/:id", r.Orders.Delete)

		api.GET("/sales", r.Sales.Report)
		api.GET("/dashboard", r.Sales.Dashboard)
	}

	if r.WebSocket != nil {
		engine.GET("/ws", middleware.Auth(r.Auth), gin.WrapF(r.WebSocket))
	}
	return engine
}
