package handlers

import (
	"net/http"

	"artastic/internal/middleware"
	"artastic/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email y contraseña son obligatorios")
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.SignOut(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Session(c *gin.Context) {
	session, _ := c.Get(middleware.SessionKey)
	c.JSON(http.StatusOK, session)
}
