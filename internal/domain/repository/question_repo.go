package repository

import (
	"github.com/yourusername/nurseprep-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с очередью вопросов.
// Очередь наполняется асинхронно пайплайном автоматизации; порядок
// "следующего" вопроса относительно предыдущего не гарантируется.
type QuestionRepository interface {
	Create(question *entity.Question) error

	// GetLatest возвращает последний добавленный вопрос.
	// Возвращает apperrors.ErrNotFound, если очередь пуста.
	GetLatest() (*entity.Question, error)

	GetByQuestionID(questionID string) (*entity.Question, error)
	List(limit, offset int) ([]entity.Question, error)
}
