package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/nurseprep-api/internal/config"
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
	"github.com/yourusername/nurseprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/nurseprep-api/internal/pkg/errors"
)

// ExplanationGenerator определяет интерфейс генеративного провайдера
type ExplanationGenerator interface {
	GenerateExplanation(ctx context.Context, questionText, selectedAnswer, correctAnswer string) (string, error)
}

// ExplanationService отвечает за кеш объяснений, ключом которого служит
// идентификатор сессии. Эндпоинт идемпотентен: первый запрос может вернуть
// заглушку, пока генерация завершается асинхронно; запись в тот же ключ
// может прийти и извне — вебхуком пайплайна автоматизации.
type ExplanationService struct {
	cacheRepo  repository.CacheRepository
	resultRepo repository.ResultRepository
	generator  ExplanationGenerator

	pendingText  string
	fallbackText string
	cacheTTL     time.Duration
}

// NewExplanationService создает сервис объяснений
func NewExplanationService(
	cacheRepo repository.CacheRepository,
	resultRepo repository.ResultRepository,
	generator ExplanationGenerator,
	cfg config.TestConfig,
) *ExplanationService {
	return &ExplanationService{
		cacheRepo:    cacheRepo,
		resultRepo:   resultRepo,
		generator:    generator,
		pendingText:  cfg.PendingExplanation,
		fallbackText: cfg.FallbackExplanation,
		cacheTTL:     cfg.ExplanationTTL(),
	}
}

func explanationKey(sessionID string) string {
	return "explanation:" + sessionID
}

func explanationLockKey(sessionID string) string {
	return "explanation_lock:" + sessionID
}

// Peek возвращает готовое объяснение из кеша или пустую строку, если его
// еще нет. Генерацию не запускает — этим путем ходит внутренний опрос сессии.
func (s *ExplanationService) Peek(sessionID string) (string, error) {
	val, err := s.cacheRepo.Get(explanationKey(sessionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

// Get возвращает объяснение для сессии. При промахе кеша запускает фоновую
// генерацию по последнему ответу сессии и немедленно возвращает заглушку —
// "еще не готово" является валидным ответом, а не ошибкой.
func (s *ExplanationService) Get(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("%w: session_id is required", apperrors.ErrValidation)
	}

	val, err := s.Peek(sessionID)
	if err != nil {
		log.Printf("[ExplanationService] Ошибка чтения кеша для сессии %s: %v", sessionID, err)
		return s.pendingText, nil
	}
	if val != "" {
		return val, nil
	}

	answer, err := s.resultRepo.GetLatestSessionAnswer(sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[ExplanationService] Ошибка поиска ответа сессии %s: %v", sessionID, err)
		}
		// Нет данных вопроса — генерировать не из чего, ждем записи вебхука
		return s.pendingText, nil
	}

	// Одна генерация на сессию: блокировка через SetNX
	acquired, err := s.cacheRepo.SetNX(explanationLockKey(sessionID), "1", 2*time.Minute)
	if err != nil {
		log.Printf("[ExplanationService] Ошибка установки блокировки генерации для сессии %s: %v", sessionID, err)
		return s.pendingText, nil
	}
	if acquired {
		go s.generate(answer)
	}

	return s.pendingText, nil
}

// StoreWebhookExplanation записывает объяснение, доставленное вебхуком
// пайплайна, в тот же ключ кеша, который опрашивают клиенты
func (s *ExplanationService) StoreWebhookExplanation(sessionID, explanation string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(explanation) == "" {
		return fmt.Errorf("%w: session_id and explanation are required", apperrors.ErrValidation)
	}
	return s.cacheRepo.Set(explanationKey(sessionID), explanation, s.cacheTTL)
}

// generate вызывает генеративный провайдер и кладет результат в кеш.
// При сбое провайдера кешируется фиксированный запасной текст, чтобы
// последующие опросы завершились, а не упирались в потолок попыток.
func (s *ExplanationService) generate(answer *entity.AnswerEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	text, err := s.generator.GenerateExplanation(ctx, answer.QuestionText, answer.SelectedAnswer, answer.CorrectAnswer)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("[ExplanationService] Генерация объяснения для сессии %s не удалась: %v", answer.SessionID, err)
		}
		text = s.fallbackText
	}

	if err := s.cacheRepo.Set(explanationKey(answer.SessionID), text, s.cacheTTL); err != nil {
		log.Printf("[ExplanationService] Ошибка записи объяснения в кеш для сессии %s: %v", answer.SessionID, err)
	}
}
