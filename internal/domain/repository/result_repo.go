package repository

import (
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
)

// ResultRepository определяет методы для работы с результатами тестов
// и событиями ответов
type ResultRepository interface {
	SaveResult(result *entity.TestResult) error

	// GetUserResults возвращает результаты пользователя, новые первыми
	GetUserResults(userID uint, limit, offset int) ([]entity.TestResult, error)

	SaveAnswerEvent(event *entity.AnswerEvent) error
	GetSessionAnswers(sessionID string) ([]entity.AnswerEvent, error)

	// GetLatestSessionAnswer возвращает последний ответ сессии.
	// Возвращает apperrors.ErrNotFound, если ответов еще нет.
	GetLatestSessionAnswer(sessionID string) (*entity.AnswerEvent, error)
}
