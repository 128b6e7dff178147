package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExtractSessionIDParam создает middleware для извлечения и валидации
// идентификатора сессии из параметра URL. Идентификаторы сессий — UUID;
// все остальное отклоняется до обращения к реестру сессий.
func ExtractSessionIDParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if _, err := uuid.Parse(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id", "error_type": "invalid_session_id"})
			c.Abort()
			return
		}
		c.Set(contextKey, raw)
		c.Next()
	}
}
