package handlers

import (
	"net/http"

	"artastic/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusMessages = map[int]string{
	http.StatusUnauthorized:        "Credenciales inválidas",
	http.StatusNotFound:            "No encontrado",
	http.StatusBadGateway:          "Error al comunicarse con la base de datos",
	http.StatusInternalServerError: "Error interno del servidor",
}

// respondError writes {"error": ...} with the status the error maps to.
// Validation errors also list every failing field.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusBadRequest {
		c.JSON(status, gin.H{"error": err.Error(), "fields": apperr.Fields(err)})
		return
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
	}
	message, ok := statusMessages[status]
	if !ok {
		message = err.Error()
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// pathID parses the :id parameter, answering 400 itself when it is malformed.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Identificador inválido")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the body, answering 400 itself on malformed input.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		badRequest(c, "Formato de solicitud inválido")
		return false
	}
	return true
}
