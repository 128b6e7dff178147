package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// QuestionService отдает вопросы из очереди, которую асинхронно наполняет
// пайплайн автоматизации, и принимает произведенные им вопросы
type QuestionService struct {
	questionRepo repository.QuestionRepository
	initial      entity.Question
	fallback     entity.Question
}

// NewQuestionService создает сервис вопросов. Стартовый и подменный вопросы
// поступают из конфигурации, а не из исходного кода.
func NewQuestionService(questionRepo repository.QuestionRepository, cfg config.TestConfig) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		initial:      questionFromConfig(cfg.InitialQuestion),
		fallback:     questionFromConfig(cfg.FallbackQuestion),
	}
}

// Initial возвращает копию стартового вопроса новой сессии
func (s *QuestionService) Initial() *entity.Question {
	q := s.initial
	return &q
}

// Next возвращает последний произведенный вопрос или nil, если очередь пуста
// ("еще не готово" — валидное состояние, не ошибка)
func (s *QuestionService) Next() (*entity.Question, error) {
	question, err := s.questionRepo.GetLatest()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return question, nil
}

// NextOrFallback возвращает последний произведенный вопрос, а при любом сбое
// или пустой очереди — подменный вопрос, чтобы переход Advance никогда не
// блокировал учащегося. Повторы и пропуски в очереди — ожидаемое поведение.
func (s *QuestionService) NextOrFallback() *entity.Question {
	question, err := s.questionRepo.GetLatest()
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionService] Ошибка получения следующего вопроса, используется подменный: %v", err)
		}
		q := s.fallback
		return &q
	}
	return question
}

// Ingest валидирует и сохраняет вопрос, доставленный входящим вебхуком
func (s *QuestionService) Ingest(question *entity.Question) error {
	if strings.TrimSpace(question.Text) == "" {
		return fmt.Errorf("%w: question_text is required", apperrors.ErrValidation)
	}
	if question.OptionA == "" || question.OptionB == "" || question.OptionC == "" || question.OptionD == "" {
		return fmt.Errorf("%w: all four options are required", apperrors.ErrValidation)
	}
	if !question.IsValidOption(question.CorrectAnswer) {
		return fmt.Errorf("%w: correct_answer must be one of A, B, C, D", apperrors.ErrValidation)
	}
	if strings.TrimSpace(question.QuestionID) == "" {
		question.QuestionID = uuid.NewString()
	}
	return s.questionRepo.Create(question)
}

// List возвращает вопросы очереди с пагинацией
func (s *QuestionService) List(limit, offset int) ([]entity.Question, error) {
	if limit < 1 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.questionRepo.List(limit, offset)
}

func questionFromConfig(q config.QuestionConfig) entity.Question {
	return entity.Question{
		QuestionID:    q.QuestionID,
		Text:          q.Text,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(q.CorrectAnswer)),
		Difficulty:    q.Difficulty,
		Explanation:   q.Explanation,
	}
}
