package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
	"github.com/yourusername/nurseprep-api/internal/service"
)

// CheckoutHandler обрабатывает запросы оформления подписки
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler создает новый обработчик оформления подписки
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CreateCheckoutSession создает Stripe checkout-сессию для текущего
// пользователя. URL возврата строятся от Origin запроса.
// POST /api/checkout-sessions
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	email := c.MustGet("email").(string)

	origin := c.GetHeader("Origin")
	if origin == "" {
		scheme := "https"
		if c.Request.TLS == nil {
			scheme = "http"
		}
		origin = scheme + "://" + c.Request.Host
	}

	sessionID, err := h.checkoutService.CreateSession(userID, email, origin)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Printf("ERROR: Internal server error in CheckoutHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}
