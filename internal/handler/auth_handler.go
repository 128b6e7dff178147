package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/nurseprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
	"github.com/yourusername/nurseprep-api/internal/service"
)

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GoogleSignInRequest представляет запрос на вход через Google.
// Веб-клиент присылает код авторизации, мобильный — готовый id_token.
type GoogleSignInRequest struct {
	Code    string `json:"code"`
	IDToken string `json:"id_token"`
}

// GoogleSignIn обрабатывает вход через Google OAuth
// POST /api/auth/google
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		result *service.SignInResult
		err    error
	)
	switch {
	case req.Code != "":
		result, err = h.authService.SignInWithGoogle(c.Request.Context(), req.Code)
	case req.IDToken != "":
		result, err = h.authService.SignInWithGoogleIDToken(c.Request.Context(), req.IDToken)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "either code or id_token is required"})
		return
	}
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Token: result.Token,
		User:  dto.NewUserResponse(result.User),
	})
}

// handleAuthError обрабатывает ошибки сервиса аутентификации
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed"})
	} else {
		log.Printf("ERROR: Internal server error in AuthHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
