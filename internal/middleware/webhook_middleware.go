package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookHeader — заголовок с общим секретом входящих вебхуков
const WebhookHeader = "X-Webhook-Token"

// RequireWebhookToken проверяет общий секрет входящих вебхуков пайплайна
// автоматизации. Сравнение — константное по времени.
func RequireWebhookToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			// Без настроенного секрета входящие вебхуки закрыты целиком
			log.Printf("[Webhook] Входящий вебхук отклонен: секрет не настроен (path=%s)", c.Request.URL.Path)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook ingestion is not configured", "error_type": "webhook_disabled"})
			c.Abort()
			return
		}

		provided := c.GetHeader(WebhookHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			log.Printf("[Webhook] Входящий вебхук отклонен: неверный токен (path=%s, ip=%s)", c.Request.URL.Path, c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook token", "error_type": "webhook_token_invalid"})
			c.Abort()
			return
		}

		c.Next()
	}
}
