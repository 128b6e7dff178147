package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
	"github.com/yourusername/nurseprep-api/internal/service"
)

// QuestionHandler обрабатывает очередь вопросов: выдачу клиентам и прием
// вопросов и объяснений от пайплайна автоматизации
type QuestionHandler struct {
	questionService    *service.QuestionService
	explanationService *service.ExplanationService
}

// NewQuestionHandler создает новый обработчик вопросов
func NewQuestionHandler(questionService *service.QuestionService, explanationService *service.ExplanationService) *QuestionHandler {
	return &QuestionHandler{
		questionService:    questionService,
		explanationService: explanationService,
	}
}

// GetNextQuestion возвращает последний произведенный вопрос или null,
// если очередь пуста. Пустая очередь — не ошибка: клиент попробует позже
// или возьмет подменный вопрос.
// GET /api/next-question
func (h *QuestionHandler) GetNextQuestion(c *gin.Context) {
	question, err := h.questionService.Next()
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}
	if question == nil {
		c.JSON(http.StatusOK, gin.H{"question": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"question": dto.NewQuestionResponse(question)})
}

// ListQuestions возвращает вопросы очереди с пагинацией
// GET /api/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	questions, err := h.questionService.List(limit, offset)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	out := make([]*dto.QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, dto.NewQuestionResponse(&questions[i]))
	}
	c.JSON(http.StatusOK, gin.H{"questions": out, "count": len(out)})
}

// IngestQuestionRequest представляет вопрос, доставленный вебхуком пайплайна
type IngestQuestionRequest struct {
	QuestionID    string `json:"question_id"`
	Text          string `json:"question_text" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required"`
	Difficulty    string `json:"difficulty"`
	Explanation   string `json:"explanation"`
}

// IngestQuestion принимает произведенный пайплайном вопрос в очередь
// POST /api/webhooks/question
func (h *QuestionHandler) IngestQuestion(c *gin.Context) {
	var req IngestQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := &entity.Question{
		QuestionID:    req.QuestionID,
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    req.Difficulty,
		Explanation:   req.Explanation,
	}
	if err := h.questionService.Ingest(question); err != nil {
		h.handleQuestionError(c, err)
		return
	}

	log.Printf("[QuestionHandler] Вопрос %s принят в очередь", question.QuestionID)
	c.JSON(http.StatusCreated, gin.H{"question_id": question.QuestionID})
}

// IngestExplanationRequest представляет объяснение, доставленное вебхуком
type IngestExplanationRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	Explanation string `json:"explanation" binding:"required"`
}

// IngestExplanation принимает готовое объяснение от пайплайна. Запись идет
// в тот же ключ кеша, который опрашивают клиенты и внутренний опрос сессии.
// POST /api/webhooks/explanation
func (h *QuestionHandler) IngestExplanation(c *gin.Context) {
	var req IngestExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.explanationService.StoreWebhookExplanation(req.SessionID, req.Explanation); err != nil {
		h.handleQuestionError(c, err)
		return
	}

	log.Printf("[QuestionHandler] Объяснение для сессии %s принято", req.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// handleQuestionError обрабатывает ошибки сервисов вопросов
func (h *QuestionHandler) handleQuestionError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in QuestionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
