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

// TestHandler обрабатывает запросы тестовых сессий
type TestHandler struct {
	sessionService     *service.SessionService
	explanationService *service.ExplanationService
}

// NewTestHandler создает новый обработчик тестовых сессий
func NewTestHandler(sessionService *service.SessionService, explanationService *service.ExplanationService) *TestHandler {
	return &TestHandler{
		sessionService:     sessionService,
		explanationService: explanationService,
	}
}

// StartSession создает новую тестовую сессию
// POST /api/test/sessions
func (h *TestHandler) StartSession(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)
	email := c.MustGet("email").(string)

	session := h.sessionService.Start(userID, email)

	snapshot, err := h.sessionService.Snapshot(session.ID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewSessionResponse(snapshot))
}

// GetSession возвращает текущее состояние сессии
// GET /api/test/sessions/:session_id
func (h *TestHandler) GetSession(c *gin.Context) {
	sessionID := c.MustGet("sessionID").(string)

	snapshot, err := h.sessionService.Snapshot(sessionID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(snapshot))
}

// SubmitAnswerRequest представляет запрос на отправку ответа
type SubmitAnswerRequest struct {
	SelectedAnswer string `json:"selected_answer" binding:"required"`
}

// SubmitAnswer обрабатывает отправку ответа на текущий вопрос
// POST /api/test/sessions/:session_id/answers
func (h *TestHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.MustGet("sessionID").(string)

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.sessionService.Submit(sessionID, req.SelectedAnswer)
	if err != nil {
		h.handleTestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSubmitResponse(outcome))
}

// NextQuestion переводит сессию к следующему вопросу
// POST /api/test/sessions/:session_id/next
func (h *TestHandler) NextQuestion(c *gin.Context) {
	sessionID := c.MustGet("sessionID").(string)

	question, err := h.sessionService.Advance(sessionID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": dto.NewQuestionResponse(question)})
}

// FinishSession завершает сессию и сохраняет сводку
// POST /api/test/sessions/:session_id/finish
func (h *TestHandler) FinishSession(c *gin.Context) {
	sessionID := c.MustGet("sessionID").(string)

	result, err := h.sessionService.Finish(sessionID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTestResultResponse(result))
}

// GetExplanation возвращает объяснение ответа текущей сессии. Пока генерация
// не завершена, отдается заглушка с pending=true — клиент опрашивает эндпоинт
// повторно.
// GET /api/explanation?session_id=...
func (h *TestHandler) GetExplanation(c *gin.Context) {
	sessionID := c.Query("session_id")

	explanation, err := h.explanationService.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.handleTestError(c, err)
		return
	}

	ready, err := h.explanationService.Peek(sessionID)
	if err != nil {
		log.Printf("[TestHandler] Ошибка проверки готовности объяснения для сессии %s: %v", sessionID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"explanation": explanation,
		"pending":     ready == "",
	})
}

// handleTestError обрабатывает ошибки сервисов тестовых сессий
func (h *TestHandler) handleTestError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "session_expired"})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in TestHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
